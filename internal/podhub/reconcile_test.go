package podhub_test

import (
	"testing"
	"time"

	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReconcileFinalizesSessionWithMissingRoom(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	orphan := *openSession("user_A", 30*time.Minute)

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{orphan}, nil)
	platformMock.On("ResolveCommunity", testCommunity).Return(nil)
	platformMock.On("FetchMembership", "room-1").Return(nil, &platform.UnresolvedError{Kind: "room", ID: "room-1"})
	storageMock.On("DeleteSession", "room-1", "user_A").Return(nil)
	storageMock.On("AddVoiceTime", "user_A", testCommunity, mock.AnythingOfType("int64")).Return(nil)
	storageMock.On("PublishVoiceDuration", mock.AnythingOfType("models.VoiceDurationEvent")).Return(nil)
	storageMock.On("GetAllPods").Return([]models.Pod{}, nil)

	hub.ReconcileStartup()

	// Finalized exactly once: the row is gone, the aggregate got the time.
	storageMock.AssertNumberOfCalls(t, "DeleteSession", 1)
	storageMock.AssertNumberOfCalls(t, "AddVoiceTime", 1)
}

func TestReconcileKeepsSessionWithPresentUser(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	live := *openSession("user_A", 5*time.Minute)

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{live}, nil)
	platformMock.On("ResolveCommunity", testCommunity).Return(nil)
	platformMock.On("FetchMembership", "room-1").Return([]platform.Member{{UserID: "user_A"}}, nil)
	storageMock.On("GetAllPods").Return([]models.Pod{}, nil)

	hub.ReconcileStartup()

	storageMock.AssertNotCalled(t, "DeleteSession", mock.Anything, mock.Anything)
	storageMock.AssertNotCalled(t, "AddVoiceTime", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileFinalizesSessionWhenUserGone(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	stale := *openSession("user_A", 5*time.Minute)

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{stale}, nil)
	platformMock.On("ResolveCommunity", testCommunity).Return(nil)
	// Room still exists but the user disconnected while we were down.
	platformMock.On("FetchMembership", "room-1").Return([]platform.Member{{UserID: "user_B"}}, nil)
	storageMock.On("DeleteSession", "room-1", "user_A").Return(nil)
	storageMock.On("AddVoiceTime", "user_A", testCommunity, mock.AnythingOfType("int64")).Return(nil)
	storageMock.On("PublishVoiceDuration", mock.AnythingOfType("models.VoiceDurationEvent")).Return(nil)
	storageMock.On("GetAllPods").Return([]models.Pod{}, nil)

	hub.ReconcileStartup()

	storageMock.AssertCalled(t, "DeleteSession", "room-1", "user_A")
}

func TestReconcileDeletesPodWithMissingRoom(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	pod := models.Pod{RoomID: "room-1", CommunityID: testCommunity, OwnerID: "user_A"}

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{}, nil)
	storageMock.On("GetAllPods").Return([]models.Pod{pod}, nil)
	platformMock.On("FetchMembership", "room-1").Return(nil, &platform.UnresolvedError{Kind: "room", ID: "room-1"})
	storageMock.On("DeletePod", "room-1").Return(nil)

	hub.ReconcileStartup()

	storageMock.AssertCalled(t, "DeletePod", "room-1")
	platformMock.AssertNotCalled(t, "DeleteRoom", mock.Anything)
}

func TestReconcileTearsDownEmptyPod(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	pod := models.Pod{RoomID: "room-1", CommunityID: testCommunity, OwnerID: "user_A"}

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{}, nil)
	storageMock.On("GetAllPods").Return([]models.Pod{pod}, nil)
	platformMock.On("FetchMembership", "room-1").Return([]platform.Member{}, nil)
	storageMock.On("GetSessionsByRoom", "room-1").Return([]models.ActiveSession{}, nil)
	platformMock.On("DeleteRoom", "room-1").Return(nil)
	storageMock.On("DeletePod", "room-1").Return(nil)

	hub.ReconcileStartup()

	platformMock.AssertCalled(t, "DeleteRoom", "room-1")
	storageMock.AssertCalled(t, "DeletePod", "room-1")
}

func TestReconcileLeavesHealthyPodAlone(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	pod := models.Pod{RoomID: "room-1", CommunityID: testCommunity, OwnerID: "user_A", OriginalOwnerID: "user_A"}

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{}, nil)
	storageMock.On("GetAllPods").Return([]models.Pod{pod}, nil)
	platformMock.On("FetchMembership", "room-1").Return([]platform.Member{{UserID: "user_A"}}, nil)

	hub.ReconcileStartup()

	storageMock.AssertNotCalled(t, "DeletePod", mock.Anything)
	assert.False(t, hub.Transfers.Armed("room-1"))
}

func TestReconcileRearmsStaleGracePeriod(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	// The process died mid-grace-period; the timer was lost with it.
	pod := *gracePod("user_A")

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{}, nil)
	storageMock.On("GetAllPods").Return([]models.Pod{pod}, nil)
	platformMock.On("FetchMembership", "room-1").Return([]platform.Member{{UserID: "user_B"}}, nil)
	storageMock.On("UpdatePodFields", "room-1", mock.MatchedBy(func(fields map[string]interface{}) bool {
		_, ok := fields["owner_left_at"].(time.Time)
		return ok
	})).Return(nil)

	hub.ReconcileStartup()

	assert.True(t, hub.Transfers.Armed("room-1"), "grace timer should be re-armed after restart")
}

func TestReconcileIsolatesBadRecords(t *testing.T) {
	storageMock := new(MockStorage)
	platformMock := new(MockPlatform)
	hub := newTestHub(storageMock, platformMock)

	broken := models.Pod{RoomID: "room-bad", CommunityID: testCommunity, OwnerID: "user_X"}
	healthy := models.Pod{RoomID: "room-ok", CommunityID: testCommunity, OwnerID: "user_A", OriginalOwnerID: "user_A"}

	storageMock.On("GetAllSessions").Return([]models.ActiveSession{}, nil)
	storageMock.On("GetAllPods").Return([]models.Pod{broken, healthy}, nil)
	// Unexpected (non-resolution) error: the record is removed defensively.
	platformMock.On("FetchMembership", "room-bad").Return(nil, assert.AnError)
	storageMock.On("DeletePod", "room-bad").Return(nil)
	platformMock.On("FetchMembership", "room-ok").Return([]platform.Member{{UserID: "user_A"}}, nil)

	hub.ReconcileStartup()

	storageMock.AssertCalled(t, "DeletePod", "room-bad")
	storageMock.AssertNotCalled(t, "DeletePod", "room-ok")
}
