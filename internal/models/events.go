package models

// EventKind discriminates membership event variants.
type EventKind string

const (
	// EventJoined fires when a user's voice presence enters a room.
	EventJoined EventKind = "joined"
	// EventLeft fires when a user's voice presence leaves a room.
	EventLeft EventKind = "left"
)

// MembershipEvent is one voice-state transition delivered by the platform
// gateway. Kind selects the variant; the remaining fields are common.
type MembershipEvent struct {
	Kind        EventKind `json:"kind"`
	UserID      string    `json:"user_id"`
	RoomID      string    `json:"room_id"`
	CommunityID string    `json:"community_id"`
	// IsBot marks automated accounts, which never become pod owners.
	IsBot bool `json:"is_bot"`
}

// VoiceDurationEvent is published on every session finalization. Consumed
// by achievement/streak accounting outside this service.
type VoiceDurationEvent struct {
	UserID      string `json:"user_id"`
	CommunityID string `json:"community_id"`
	Seconds     int64  `json:"seconds"`
}

// OwnershipChangedEvent is published whenever a pod's owner changes, via
// deferred transfer or an accepted reclaim.
type OwnershipChangedEvent struct {
	RoomID   string `json:"room_id"`
	OldOwner string `json:"old_owner"`
	NewOwner string `json:"new_owner"`
	// Reason is "transfer" for grace-window expiry, "reclaim" for an
	// accepted reclaim request.
	Reason string `json:"reason"`
}
