package podhub

import (
	"errors"
	"log"
	"time"

	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"
)

// ReconcileStartup repairs persisted state against live platform reality.
// It runs once at boot, before the event loop starts. Pass 1 finalizes
// sessions whose community, room, or physical presence no longer checks
// out; pass 2 deletes pods whose rooms vanished or emptied and re-arms a
// fresh grace timer for pods caught mid-grace-period by the restart.
// Failures are isolated per record so one bad row cannot abort the rest.
func (m *ManagerService) ReconcileStartup() {
	log.Println("Starting state reconciliation...")

	sessions, err := m.Storage.GetAllSessions()
	if err != nil {
		log.Printf("ERROR: listing sessions for reconciliation: %v", err)
	} else {
		repaired := 0
		now := time.Now()
		for i := range sessions {
			if m.reconcileSession(&sessions[i], now) {
				repaired++
			}
		}
		log.Printf("Session reconciliation complete: %d of %d finalized", repaired, len(sessions))
	}

	pods, err := m.Storage.GetAllPods()
	if err != nil {
		log.Printf("ERROR: listing pods for reconciliation: %v", err)
		return
	}
	for i := range pods {
		m.reconcilePod(&pods[i])
	}
	log.Printf("Pod reconciliation complete: %d pods checked", len(pods))
}

// reconcileSession verifies community → room → presence and finalizes the
// session on the first failed check. Returns true when it finalized.
func (m *ManagerService) reconcileSession(session *models.ActiveSession, now time.Time) bool {
	if err := m.Platform.ResolveCommunity(session.CommunityID); err != nil {
		m.finalizeSession(session, now)
		return true
	}

	members, err := m.Platform.FetchMembership(session.RoomID)
	if err != nil {
		m.finalizeSession(session, now)
		return true
	}

	for _, member := range members {
		if member.UserID == session.UserID {
			return false // still present, session stays open
		}
	}
	m.finalizeSession(session, now)
	return true
}

// reconcilePod checks one pod against the live room. Unexpected errors
// delete the record defensively: a row we cannot verify would otherwise be
// a permanent orphan.
func (m *ManagerService) reconcilePod(pod *models.Pod) {
	members, err := m.Platform.FetchMembership(pod.RoomID)
	if err != nil {
		var unresolved *platform.UnresolvedError
		if errors.As(err, &unresolved) {
			log.Printf("Pod %s references a missing room, removing record", pod.RoomID)
		} else {
			log.Printf("ERROR: checking pod %s, removing record defensively: %v", pod.RoomID, err)
		}
		if err := m.Storage.DeletePod(pod.RoomID); err != nil {
			log.Printf("ERROR: deleting pod record %s: %v", pod.RoomID, err)
		}
		return
	}

	if len(members) == 0 {
		m.teardownPod(pod, true)
		return
	}

	// The restart dropped any armed timer. Grant the absent owner a fresh
	// full window rather than transferring immediately at boot.
	if pod.InGracePeriod() {
		now := time.Now()
		err := m.Storage.UpdatePodFields(pod.RoomID, map[string]interface{}{
			"owner_left_at": now,
		})
		if err != nil {
			log.Printf("ERROR: refreshing grace period on %s: %v", pod.RoomID, err)
			return
		}
		roomID := pod.RoomID
		m.Transfers.Arm(roomID, m.Grace, func() {
			m.ExecuteTransfer(roomID)
		})
		log.Printf("Pod %s was mid-grace-period at shutdown, timer re-armed", pod.RoomID)
	}
}
