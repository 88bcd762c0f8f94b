package podhub

import (
	"errors"
	"fmt"
	"log"

	"voicepods/backend/internal/models"
	"voicepods/backend/internal/storage"
)

var (
	// ErrPromptExpired means the prompt nonce no longer resolves (answered
	// already, or the TTL lapsed).
	ErrPromptExpired = errors.New("podhub: reclaim prompt expired")
	// ErrNotCurrentOwner means the caller is not the pod's current owner,
	// who alone may accept or deny a reclaim.
	ErrNotCurrentOwner = errors.New("podhub: only the current owner may answer a reclaim request")
	// ErrStalePrompt means ownership changed between prompt and answer and
	// the request is no longer meaningful.
	ErrStalePrompt = errors.New("podhub: reclaim request is stale")
)

// AcceptReclaim hands the pod back to its original owner. The pod row is
// re-read and the caller re-validated against it rather than against
// whatever the prompt captured: ownership may have moved since.
func (m *ManagerService) AcceptReclaim(promptID, callerID string) error {
	pod, err := m.resolvePrompt(promptID, callerID)
	if err != nil {
		return err
	}

	err = m.Storage.UpdatePodFields(pod.RoomID, map[string]interface{}{
		"owner_id":                pod.OriginalOwnerID,
		"reclaim_request_pending": false,
	})
	if err != nil {
		return fmt.Errorf("committing reclaim on %s: %w", pod.RoomID, err)
	}
	m.closePrompt(promptID)

	m.applyOwnerChange(pod.RoomID, pod.OwnerID, pod.OriginalOwnerID)

	event := models.OwnershipChangedEvent{
		RoomID:   pod.RoomID,
		OldOwner: pod.OwnerID,
		NewOwner: pod.OriginalOwnerID,
		Reason:   "reclaim",
	}
	if err := m.Storage.PublishOwnershipChanged(event); err != nil {
		log.Printf("WARNING: publishing ownership change for %s: %v", pod.RoomID, err)
	}

	m.notifyRoom(pod.RoomID, "The reclaim request was accepted; the pod is back with its original creator.")
	log.Printf("Pod %s reclaimed by %s from %s", pod.RoomID, pod.OriginalOwnerID, pod.OwnerID)
	return nil
}

// DenyReclaim clears the pending request without touching ownership.
func (m *ManagerService) DenyReclaim(promptID, callerID string) error {
	pod, err := m.resolvePrompt(promptID, callerID)
	if err != nil {
		return err
	}

	err = m.Storage.UpdatePodFields(pod.RoomID, map[string]interface{}{
		"reclaim_request_pending": false,
	})
	if err != nil {
		return fmt.Errorf("clearing reclaim flag on %s: %w", pod.RoomID, err)
	}
	m.closePrompt(promptID)

	m.notifyRoom(pod.RoomID, "The reclaim request was denied; ownership is unchanged.")
	log.Printf("Reclaim on %s denied by %s", pod.RoomID, pod.OwnerID)
	return nil
}

// resolvePrompt maps a prompt nonce back to its pod and validates the
// caller and the request's freshness against the current row.
func (m *ManagerService) resolvePrompt(promptID, callerID string) (*models.Pod, error) {
	roomID, err := m.Storage.GetReclaimPromptRoom(promptID)
	if err == storage.ErrNotFound {
		return nil, ErrPromptExpired
	}
	if err != nil {
		return nil, err
	}

	pod, err := m.Storage.GetPodByRoomID(roomID)
	if err == storage.ErrNotFound {
		m.closePrompt(promptID)
		return nil, ErrPromptExpired
	}
	if err != nil {
		return nil, err
	}
	if !pod.ReclaimRequestPending {
		m.closePrompt(promptID)
		return nil, ErrPromptExpired
	}

	// Ownership moved since the prompt (e.g. a grace-window transfer made
	// the requester the owner again): clear the flag and refuse.
	if pod.OwnerID == pod.OriginalOwnerID {
		if err := m.Storage.UpdatePodFields(pod.RoomID, map[string]interface{}{
			"reclaim_request_pending": false,
		}); err != nil {
			log.Printf("ERROR: clearing stale reclaim flag on %s: %v", pod.RoomID, err)
		}
		m.closePrompt(promptID)
		return nil, ErrStalePrompt
	}

	if callerID != pod.OwnerID {
		return nil, ErrNotCurrentOwner
	}
	return pod, nil
}

func (m *ManagerService) closePrompt(promptID string) {
	if err := m.Storage.DeleteReclaimPrompt(promptID); err != nil {
		log.Printf("WARNING: deleting reclaim prompt %s: %v", promptID, err)
	}
}
