package podhub_test

import (
	"time"

	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the storage.Storage interface.
// It uses testify/mock to allow flexible expectation setting in tests.
type MockStorage struct {
	mock.Mock
}

// Pod operations
func (m *MockStorage) SavePod(pod *models.Pod) error {
	args := m.Called(pod)
	return args.Error(0)
}

func (m *MockStorage) GetPodByRoomID(roomID string) (*models.Pod, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

func (m *MockStorage) GetAllPods() ([]models.Pod, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Pod), args.Error(1)
}

func (m *MockStorage) UpdatePodFields(roomID string, fields map[string]interface{}) error {
	args := m.Called(roomID, fields)
	return args.Error(0)
}

func (m *MockStorage) DeletePod(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

// Session operations
func (m *MockStorage) SaveSession(session *models.ActiveSession) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockStorage) GetSession(roomID, userID string) (*models.ActiveSession, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActiveSession), args.Error(1)
}

func (m *MockStorage) GetSessionsByRoom(roomID string) ([]models.ActiveSession, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActiveSession), args.Error(1)
}

func (m *MockStorage) GetAllSessions() ([]models.ActiveSession, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActiveSession), args.Error(1)
}

func (m *MockStorage) DeleteSession(roomID, userID string) error {
	args := m.Called(roomID, userID)
	return args.Error(0)
}

// Aggregate operations
func (m *MockStorage) AddVoiceTime(userID, communityID string, seconds int64) error {
	args := m.Called(userID, communityID, seconds)
	return args.Error(0)
}

func (m *MockStorage) GetVoiceStat(userID, communityID string) (*models.VoiceStat, error) {
	args := m.Called(userID, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoiceStat), args.Error(1)
}

// Preference operations
func (m *MockStorage) GetUserPrefs(userID string) (*models.UserPrefs, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPrefs), args.Error(1)
}

// Event publication
func (m *MockStorage) PublishVoiceDuration(event models.VoiceDurationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockStorage) PublishOwnershipChanged(event models.OwnershipChangedEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// Reclaim prompt nonces
func (m *MockStorage) SaveReclaimPrompt(promptID, roomID string, ttl time.Duration) error {
	args := m.Called(promptID, roomID, ttl)
	return args.Error(0)
}

func (m *MockStorage) GetReclaimPromptRoom(promptID string) (string, error) {
	args := m.Called(promptID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) DeleteReclaimPrompt(promptID string) error {
	args := m.Called(promptID)
	return args.Error(0)
}

// MockPlatform is a mock implementation of the platform.Platform interface.
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) HasCapabilities(communityID string) bool {
	args := m.Called(communityID)
	return args.Bool(0)
}

func (m *MockPlatform) CreateRoom(communityID, name string, grants []platform.AccessGrant) (string, error) {
	args := m.Called(communityID, name, grants)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) DeleteRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *MockPlatform) RenameRoom(roomID, name string) error {
	args := m.Called(roomID, name)
	return args.Error(0)
}

func (m *MockPlatform) MoveMember(userID, roomID string) error {
	args := m.Called(userID, roomID)
	return args.Error(0)
}

func (m *MockPlatform) DisconnectMember(userID, communityID string) error {
	args := m.Called(userID, communityID)
	return args.Error(0)
}

func (m *MockPlatform) EditAccessGrant(roomID string, grant platform.AccessGrant) error {
	args := m.Called(roomID, grant)
	return args.Error(0)
}

func (m *MockPlatform) FetchMembership(roomID string) ([]platform.Member, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]platform.Member), args.Error(1)
}

func (m *MockPlatform) ResolveUser(communityID, userID string) error {
	args := m.Called(communityID, userID)
	return args.Error(0)
}

func (m *MockPlatform) ResolveCommunity(communityID string) error {
	args := m.Called(communityID)
	return args.Error(0)
}

func (m *MockPlatform) SendMessage(roomID, content string) error {
	args := m.Called(roomID, content)
	return args.Error(0)
}

func (m *MockPlatform) SendDM(userID, content string) error {
	args := m.Called(userID, content)
	return args.Error(0)
}
