// Package podhub implements the pod lifecycle engine: provisioning private
// voice rooms from a hub entry point, tracking ownership, deferring
// ownership transfer when owners leave, negotiating reclaims, and repairing
// persisted state after restarts.
package podhub

import (
	"log"
	"time"

	"voicepods/backend/internal/config"
	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"
	"voicepods/backend/internal/storage"
)

// ManagerService routes platform membership events to the creation,
// re-join, and departure handlers. It owns the process-local deferred
// transfer registry.
type ManagerService struct {
	Storage  storage.Storage
	Platform platform.Platform

	// HubRoomID is the entry point whose joins trigger pod creation.
	HubRoomID string

	// Grace is the window an absent owner gets before transfer.
	Grace time.Duration

	EventCh chan models.MembershipEvent

	Transfers *TransferRegistry
}

// NewManagerService wires a manager over the given storage and platform.
func NewManagerService(s storage.Storage, p platform.Platform, hubRoomID string) *ManagerService {
	return &ManagerService{
		Storage:   s,
		Platform:  p,
		HubRoomID: hubRoomID,
		Grace:     config.GracePeriod,
		EventCh:   make(chan models.MembershipEvent, 64),
		Transfers: NewTransferRegistry(),
	}
}

// Deliver implements platform.EventSink.
func (m *ManagerService) Deliver(event models.MembershipEvent) {
	m.EventCh <- event
}

// Run consumes membership events until the channel closes. Events are
// dispatched one at a time, so store read-modify-write sequences for a pod
// never interleave with another event's; only timer fires run concurrently,
// and those re-validate persisted state before acting.
func (m *ManagerService) Run() {
	log.Println("Pod hub started.")
	for event := range m.EventCh {
		m.dispatch(event)
	}
}

func (m *ManagerService) dispatch(event models.MembershipEvent) {
	switch event.Kind {
	case models.EventJoined:
		if event.RoomID == m.HubRoomID {
			m.handleHubJoin(event)
			return
		}
		pod, err := m.Storage.GetPodByRoomID(event.RoomID)
		if err == storage.ErrNotFound {
			return // not a tracked pod
		}
		if err != nil {
			log.Printf("ERROR: pod lookup for join in %s: %v", event.RoomID, err)
			return
		}
		m.handleRejoin(event, pod)

	case models.EventLeft:
		pod, err := m.Storage.GetPodByRoomID(event.RoomID)
		if err == storage.ErrNotFound {
			return
		}
		if err != nil {
			log.Printf("ERROR: pod lookup for leave in %s: %v", event.RoomID, err)
			return
		}
		m.handleDeparture(event, pod)
	}
}

// notifyRoom posts into a room, swallowing delivery failures.
func (m *ManagerService) notifyRoom(roomID, content string) {
	if err := m.Platform.SendMessage(roomID, content); err != nil {
		log.Printf("WARNING: failed to notify room %s: %v", roomID, err)
	}
}

// notifyUser DMs a user, swallowing delivery failures.
func (m *ManagerService) notifyUser(userID, content string) {
	if err := m.Platform.SendDM(userID, content); err != nil {
		log.Printf("WARNING: failed to DM user %s: %v", userID, err)
	}
}
