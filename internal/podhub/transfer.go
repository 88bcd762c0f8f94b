package podhub

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"voicepods/backend/internal/config"
	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"
	"voicepods/backend/internal/storage"
)

// TransferRegistry is the process-local map of armed grace-period timers,
// keyed by room id. It is an acceleration layer only: losing it (e.g. on
// restart) delays a transfer but never corrupts ownership, because the fire
// handler trusts the persisted pod row over its own scheduling context.
type TransferRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTransferRegistry() *TransferRegistry {
	return &TransferRegistry{timers: make(map[string]*time.Timer)}
}

// Arm schedules fn after delay, replacing any timer already armed for the
// room. fn runs on its own goroutine with the registry entry removed.
func (r *TransferRegistry) Arm(roomID string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.timers[roomID]; ok {
		existing.Stop()
	}
	r.timers[roomID] = time.AfterFunc(delay, func() {
		r.remove(roomID)
		fn()
	})
}

// Cancel stops and removes the room's timer. Canceling an unarmed or
// already-fired timer is a no-op; the fire handler re-validates persisted
// state, so losing the cancel race is harmless.
func (r *TransferRegistry) Cancel(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[roomID]; ok {
		timer.Stop()
		delete(r.timers, roomID)
	}
}

// Armed reports whether a timer is currently registered for the room.
func (r *TransferRegistry) Armed(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[roomID]
	return ok
}

func (r *TransferRegistry) remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, roomID)
}

// ExecuteTransfer runs when a grace window elapses. Minutes have passed
// since arming, so everything is re-fetched: the transfer aborts silently
// if the owner returned (owner_left_at cleared), the pod or room is gone,
// or the room emptied. Otherwise the first non-bot member becomes the new
// owner. The ownership row update is authoritative; grant edits, the
// rename, and the notice are cosmetic and never roll it back.
func (m *ManagerService) ExecuteTransfer(roomID string) {
	pod, err := m.Storage.GetPodByRoomID(roomID)
	if err == storage.ErrNotFound {
		return
	}
	if err != nil {
		log.Printf("ERROR: pod lookup for transfer of %s: %v", roomID, err)
		return
	}
	if !pod.InGracePeriod() {
		return // owner returned
	}

	members, err := m.Platform.FetchMembership(roomID)
	if err != nil {
		var unresolved *platform.UnresolvedError
		if errors.As(err, &unresolved) {
			return // room gone
		}
		// Transient failure: owner_left_at is still set and the registry
		// entry was removed on fire, so retry soon rather than leaving the
		// pod stuck in its grace period until a restart.
		log.Printf("ERROR: fetching membership for transfer of %s: %v (retrying in %s)", roomID, err, config.TransferRetryDelay)
		m.Transfers.Arm(roomID, config.TransferRetryDelay, func() {
			m.ExecuteTransfer(roomID)
		})
		return
	}
	if len(members) == 0 {
		return
	}

	newOwner := ""
	for _, member := range members {
		if !member.IsBot {
			newOwner = member.UserID
			break
		}
	}
	if newOwner == "" {
		return // only bots left
	}

	err = m.Storage.UpdatePodFields(roomID, map[string]interface{}{
		"owner_id":      newOwner,
		"owner_left_at": nil,
	})
	if err != nil {
		log.Printf("ERROR: committing transfer of %s to %s: %v", roomID, newOwner, err)
		return
	}

	m.applyOwnerChange(roomID, pod.OwnerID, newOwner)

	event := models.OwnershipChangedEvent{
		RoomID:   roomID,
		OldOwner: pod.OwnerID,
		NewOwner: newOwner,
		Reason:   "transfer",
	}
	if err := m.Storage.PublishOwnershipChanged(event); err != nil {
		log.Printf("WARNING: publishing ownership change for %s: %v", roomID, err)
	}

	m.notifyRoom(roomID, "The previous owner did not return; this pod now belongs to a new owner.")
	log.Printf("Pod %s transferred from %s to %s", roomID, pod.OwnerID, newOwner)
}

// applyOwnerChange adjusts grants and the room name after an ownership
// change. Every step is best-effort: the old owner may have left the
// community entirely, and a failed rename does not undo the transfer.
func (m *ManagerService) applyOwnerChange(roomID, oldOwner, newOwner string) {
	revoke := platform.AccessGrant{
		TargetID: oldOwner,
		Deny:     []string{config.GrantManage, config.GrantMove},
	}
	if err := m.Platform.EditAccessGrant(roomID, revoke); err != nil {
		log.Printf("WARNING: revoking grants from %s on %s: %v", oldOwner, roomID, err)
	}

	grant := platform.AccessGrant{
		TargetID: newOwner,
		Allow:    config.OwnerGrants,
	}
	if err := m.Platform.EditAccessGrant(roomID, grant); err != nil {
		log.Printf("WARNING: granting owner rights to %s on %s: %v", newOwner, roomID, err)
	}

	name := fmt.Sprintf(config.PodNameTemplate, newOwner)
	if err := m.Platform.RenameRoom(roomID, name); err != nil {
		log.Printf("WARNING: renaming %s: %v", roomID, err)
	}
}
