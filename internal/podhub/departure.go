package podhub

import (
	"errors"
	"log"
	"time"

	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"
	"voicepods/backend/internal/storage"
)

// handleDeparture finalizes the departing user's session, then either tears
// the pod down (room empty), arms a deferred ownership transfer (owner
// left), or does nothing further.
func (m *ManagerService) handleDeparture(event models.MembershipEvent, pod *models.Pod) {
	m.finalizeSessionIfOpen(event.RoomID, event.UserID, time.Now())

	members, err := m.Platform.FetchMembership(pod.RoomID)
	if err != nil {
		var unresolved *platform.UnresolvedError
		if errors.As(err, &unresolved) {
			// Room already gone; drop our record of it.
			m.teardownPod(pod, false)
			return
		}
		log.Printf("ERROR: fetching membership of %s: %v", pod.RoomID, err)
		return
	}

	if len(members) == 0 {
		m.teardownPod(pod, true)
		return
	}

	if event.UserID == pod.OwnerID && !pod.InGracePeriod() {
		now := time.Now()
		fields := map[string]interface{}{
			"owner_left_at": now,
		}
		// Grace period and reclaim handshake are mutually exclusive
		// triggers: an open prompt is voided when the owner it was
		// addressed to walks out, otherwise a timer transfer would leave
		// it answerable by the brand-new owner.
		if pod.ReclaimRequestPending {
			fields["reclaim_request_pending"] = false
		}
		err := m.Storage.UpdatePodFields(pod.RoomID, fields)
		if err != nil {
			log.Printf("ERROR: marking grace period on %s: %v", pod.RoomID, err)
			return
		}
		roomID := pod.RoomID
		m.Transfers.Arm(roomID, m.Grace, func() {
			m.ExecuteTransfer(roomID)
		})
		m.notifyRoom(pod.RoomID, "The owner left. Ownership transfers to another member in five minutes unless they return.")
		log.Printf("Owner %s left %s, transfer armed", event.UserID, pod.RoomID)
	}
}

// teardownPod removes an empty or unresolvable pod: cancel any armed
// transfer, finalize every lingering session (covers users who vanished
// without a clean leave event), delete the room when it still exists, and
// drop the Pod row.
func (m *ManagerService) teardownPod(pod *models.Pod, roomExists bool) {
	m.Transfers.Cancel(pod.RoomID)

	sessions, err := m.Storage.GetSessionsByRoom(pod.RoomID)
	if err != nil {
		log.Printf("ERROR: listing sessions of %s during teardown: %v", pod.RoomID, err)
	} else {
		now := time.Now()
		for _, session := range sessions {
			m.finalizeSession(&session, now)
		}
	}

	if roomExists {
		if err := m.Platform.DeleteRoom(pod.RoomID); err != nil {
			log.Printf("WARNING: deleting room %s: %v", pod.RoomID, err)
		}
	}
	if err := m.Storage.DeletePod(pod.RoomID); err != nil {
		log.Printf("ERROR: deleting pod record %s: %v", pod.RoomID, err)
		return
	}
	log.Printf("Pod %s torn down", pod.RoomID)
}

// finalizeSessionIfOpen finalizes the (roomID, userID) session when one
// exists. A repeated leave event finds no row and is a no-op.
func (m *ManagerService) finalizeSessionIfOpen(roomID, userID string, now time.Time) {
	session, err := m.Storage.GetSession(roomID, userID)
	if err == storage.ErrNotFound {
		return
	}
	if err != nil {
		log.Printf("ERROR: session lookup for %s in %s: %v", userID, roomID, err)
		return
	}
	m.finalizeSession(session, now)
}

// finalizeSession folds one session into the voice-time aggregate. The row
// is deleted before the aggregate is updated so a session can never count
// twice; a crash between the two loses one session's seconds rather than
// double-counting them.
func (m *ManagerService) finalizeSession(session *models.ActiveSession, now time.Time) {
	seconds := int64(session.Duration(now).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	if err := m.Storage.DeleteSession(session.RoomID, session.UserID); err != nil {
		log.Printf("ERROR: deleting session %s/%s: %v", session.RoomID, session.UserID, err)
		return
	}
	if err := m.Storage.AddVoiceTime(session.UserID, session.CommunityID, seconds); err != nil {
		log.Printf("ERROR: adding voice time for %s: %v", session.UserID, err)
		return
	}

	event := models.VoiceDurationEvent{
		UserID:      session.UserID,
		CommunityID: session.CommunityID,
		Seconds:     seconds,
	}
	if err := m.Storage.PublishVoiceDuration(event); err != nil {
		log.Printf("WARNING: publishing voice duration for %s: %v", session.UserID, err)
	}
}
