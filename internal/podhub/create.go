package podhub

import (
	"fmt"
	"log"
	"time"

	"voicepods/backend/internal/config"
	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"
)

// handleHubJoin provisions a new pod for a user entering the hub: create
// the room with the community's default role restricted, apply the
// creator's auto-whitelist, move the creator in, and record the pod and
// their session. Any failure after room creation tears the sequence back
// down: the creator is disconnected and told why, and the room is deleted
// best-effort.
func (m *ManagerService) handleHubJoin(event models.MembershipEvent) {
	if !m.Platform.HasCapabilities(event.CommunityID) {
		log.Printf("ERROR: missing platform capabilities in community %s, evicting %s", event.CommunityID, event.UserID)
		m.evict(event, "Pod creation is unavailable: the service lacks the required permissions in this community.")
		return
	}

	prefs, err := m.Storage.GetUserPrefs(event.UserID)
	if err != nil {
		log.Printf("ERROR: loading prefs for %s: %v", event.UserID, err)
		m.evict(event, "Pod creation failed: could not load your preferences.")
		return
	}

	// The community id doubles as the default role id on the platform.
	defaultGrant := platform.AccessGrant{
		TargetID: event.CommunityID,
		Allow:    []string{config.GrantView},
	}
	if prefs.DefaultLocked {
		defaultGrant.Deny = []string{config.GrantConnect}
	}
	grants := []platform.AccessGrant{
		defaultGrant,
		{TargetID: event.UserID, Allow: config.OwnerGrants},
	}

	name := fmt.Sprintf(config.PodNameTemplate, event.UserID)
	roomID, err := m.Platform.CreateRoom(event.CommunityID, name, grants)
	if err != nil {
		log.Printf("ERROR: creating room for %s: %v", event.UserID, err)
		m.evict(event, fmt.Sprintf("Pod creation failed: %v", err))
		return
	}

	for _, target := range prefs.AutoWhitelist {
		if err := m.Platform.ResolveUser(event.CommunityID, target); err != nil {
			log.Printf("WARNING: skipping auto-whitelist target %s: %v", target, err)
			continue
		}
		grant := platform.AccessGrant{TargetID: target, Allow: config.MemberGrants}
		if err := m.Platform.EditAccessGrant(roomID, grant); err != nil {
			log.Printf("WARNING: auto-whitelist grant for %s on %s: %v", target, roomID, err)
		}
	}

	if err := m.Platform.MoveMember(event.UserID, roomID); err != nil {
		log.Printf("ERROR: moving %s into %s: %v", event.UserID, roomID, err)
		m.abortCreation(event, roomID, err)
		return
	}

	now := time.Now()
	pod := &models.Pod{
		RoomID:          roomID,
		CommunityID:     event.CommunityID,
		OwnerID:         event.UserID,
		OriginalOwnerID: event.UserID,
		CreatedAt:       now,
	}
	if err := m.Storage.SavePod(pod); err != nil {
		log.Printf("ERROR: recording pod %s: %v", roomID, err)
		m.abortCreation(event, roomID, err)
		return
	}

	session := &models.ActiveSession{
		RoomID:      roomID,
		UserID:      event.UserID,
		CommunityID: event.CommunityID,
		StartTime:   now,
	}
	if err := m.Storage.SaveSession(session); err != nil {
		log.Printf("ERROR: opening session for %s in %s: %v", event.UserID, roomID, err)
	}

	m.notifyRoom(roomID, "This pod is yours. It transfers to another member five minutes after you leave, and is removed when it empties.")
	log.Printf("Pod %s created for %s in community %s", roomID, event.UserID, event.CommunityID)
}

// evict pushes the user back out of voice with an explanation.
func (m *ManagerService) evict(event models.MembershipEvent, reason string) {
	if err := m.Platform.DisconnectMember(event.UserID, event.CommunityID); err != nil {
		log.Printf("WARNING: disconnecting %s: %v", event.UserID, err)
	}
	m.notifyUser(event.UserID, reason)
}

// abortCreation compensates a half-built pod: the room exists but no Pod
// row does, so it is deleted best-effort before evicting the creator. A
// crash in this window leaves an untracked room for manual cleanup.
func (m *ManagerService) abortCreation(event models.MembershipEvent, roomID string, cause error) {
	if err := m.Platform.DeleteRoom(roomID); err != nil {
		log.Printf("WARNING: cleanup of half-created room %s failed: %v", roomID, err)
	}
	m.evict(event, fmt.Sprintf("Pod creation failed: %v", cause))
}
