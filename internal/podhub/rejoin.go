package podhub

import (
	"fmt"
	"log"
	"time"

	"voicepods/backend/internal/config"
	"voicepods/backend/internal/models"
	"voicepods/backend/internal/storage"

	"github.com/google/uuid"
)

// handleRejoin resolves a join into an already-tracked pod. Three mutually
// exclusive cases, in priority order: the owner returning during their
// grace period, the original owner becoming reclaim-eligible, and the
// originalOwner backfill for rows written before the column existed.
// Whatever the case, the joiner gets an open session.
func (m *ManagerService) handleRejoin(event models.MembershipEvent, pod *models.Pod) {
	switch {
	case pod.OwnerID == event.UserID && pod.InGracePeriod():
		m.Transfers.Cancel(pod.RoomID)
		err := m.Storage.UpdatePodFields(pod.RoomID, map[string]interface{}{
			"owner_left_at": nil,
		})
		if err != nil {
			log.Printf("ERROR: clearing grace period on %s: %v", pod.RoomID, err)
			break
		}
		m.notifyRoom(pod.RoomID, "The owner is back; the pending ownership transfer was canceled.")
		log.Printf("Owner %s returned to %s within grace period", event.UserID, pod.RoomID)

	case pod.OriginalOwnerID == event.UserID &&
		pod.OwnerID != event.UserID &&
		!pod.InGracePeriod() &&
		!pod.ReclaimRequestPending:
		m.sendReclaimPrompt(event, pod)

	case pod.OriginalOwnerID == "" && pod.OwnerID == event.UserID:
		err := m.Storage.UpdatePodFields(pod.RoomID, map[string]interface{}{
			"original_owner_id": event.UserID,
		})
		if err != nil {
			log.Printf("ERROR: backfilling original owner on %s: %v", pod.RoomID, err)
		}
	}

	m.ensureSession(event)
}

// sendReclaimPrompt opens the reclaim handshake: the prompt nonce is stored
// first, then the pending flag is set, so a crash between the two leaves a
// resolvable prompt rather than a flag nothing can clear.
func (m *ManagerService) sendReclaimPrompt(event models.MembershipEvent, pod *models.Pod) {
	promptID := uuid.New().String()
	if err := m.Storage.SaveReclaimPrompt(promptID, pod.RoomID, config.ReclaimPromptTTL); err != nil {
		log.Printf("ERROR: storing reclaim prompt for %s: %v", pod.RoomID, err)
		return
	}
	err := m.Storage.UpdatePodFields(pod.RoomID, map[string]interface{}{
		"reclaim_request_pending": true,
	})
	if err != nil {
		log.Printf("ERROR: marking reclaim pending on %s: %v", pod.RoomID, err)
		return
	}

	m.notifyUser(pod.OriginalOwnerID, fmt.Sprintf(
		"You created this pod; a reclaim request was opened on your behalf. The current owner decides it: accept via POST /reclaim/%s/accept, deny via POST /reclaim/%s/deny.",
		promptID, promptID))
	m.notifyRoom(pod.RoomID, fmt.Sprintf(
		"The original creator of this pod is back and asks to reclaim it. Current owner: accept or deny with prompt %s.",
		promptID))
	log.Printf("Reclaim prompt %s sent for %s (original owner %s, current owner %s)",
		promptID, pod.RoomID, pod.OriginalOwnerID, pod.OwnerID)
}

// ensureSession opens a session for the joiner unless one is already open.
func (m *ManagerService) ensureSession(event models.MembershipEvent) {
	_, err := m.Storage.GetSession(event.RoomID, event.UserID)
	if err == nil {
		return
	}
	if err != storage.ErrNotFound {
		log.Printf("ERROR: session lookup for %s in %s: %v", event.UserID, event.RoomID, err)
		return
	}
	session := &models.ActiveSession{
		RoomID:      event.RoomID,
		UserID:      event.UserID,
		CommunityID: event.CommunityID,
		StartTime:   time.Now(),
	}
	if err := m.Storage.SaveSession(session); err != nil {
		log.Printf("ERROR: opening session for %s in %s: %v", event.UserID, event.RoomID, err)
	}
}
