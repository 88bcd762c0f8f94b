package models

import "time"

// Pod represents one active per-owner voice room provisioned from the hub.
// It holds current and original ownership plus the markers driving the two
// async flows a pod can be in: the post-departure grace period and an
// outstanding reclaim handshake.
type Pod struct {
	// RoomID is the platform handle of the voice room (primary key).
	RoomID string `gorm:"primaryKey"`
	// CommunityID identifies the community the room belongs to.
	CommunityID string `gorm:"index"`
	// OwnerID is the current owner of the pod.
	OwnerID string
	// OriginalOwnerID is the creator. Immutable once set; empty only for
	// rows written before the column existed (backfilled on re-join).
	OriginalOwnerID string
	// OwnerLeftAt is set while the pod is in its grace period. A zero
	// pointer means the owner is present or ownership already settled.
	OwnerLeftAt *time.Time
	// ReclaimRequestPending is true while an unanswered reclaim prompt
	// addressed to the original owner exists.
	ReclaimRequestPending bool
	// CreatedAt is the timestamp when the pod was provisioned.
	CreatedAt time.Time
}

// InGracePeriod reports whether the owner has departed and the transfer
// window is still open.
func (p *Pod) InGracePeriod() bool {
	return p.OwnerLeftAt != nil
}
