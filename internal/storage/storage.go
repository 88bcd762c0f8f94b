package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"voicepods/backend/internal/config"
	"voicepods/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by point lookups when no row exists.
var ErrNotFound = errors.New("storage: record not found")

type Storage interface {
	SavePod(pod *models.Pod) error
	GetPodByRoomID(roomID string) (*models.Pod, error)
	GetAllPods() ([]models.Pod, error)
	UpdatePodFields(roomID string, fields map[string]interface{}) error
	DeletePod(roomID string) error

	SaveSession(session *models.ActiveSession) error
	GetSession(roomID, userID string) (*models.ActiveSession, error)
	GetSessionsByRoom(roomID string) ([]models.ActiveSession, error)
	GetAllSessions() ([]models.ActiveSession, error)
	DeleteSession(roomID, userID string) error

	AddVoiceTime(userID, communityID string, seconds int64) error
	GetVoiceStat(userID, communityID string) (*models.VoiceStat, error)

	GetUserPrefs(userID string) (*models.UserPrefs, error)

	PublishVoiceDuration(event models.VoiceDurationEvent) error
	PublishOwnershipChanged(event models.OwnershipChangedEvent) error

	SaveReclaimPrompt(promptID, roomID string, ttl time.Duration) error
	GetReclaimPromptRoom(promptID string) (string, error)
	DeleteReclaimPrompt(promptID string) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SavePod inserts or updates a pod row in PostgreSQL.
func (s *Service) SavePod(pod *models.Pod) error {
	return s.DB.Save(pod).Error
}

// GetPodByRoomID fetches a pod by its room handle.
func (s *Service) GetPodByRoomID(roomID string) (*models.Pod, error) {
	var pod models.Pod
	err := s.DB.First(&pod, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pod, nil
}

// GetAllPods returns every persisted pod, for startup reconciliation.
func (s *Service) GetAllPods() ([]models.Pod, error) {
	var pods []models.Pod
	if err := s.DB.Find(&pods).Error; err != nil {
		return nil, err
	}
	return pods, nil
}

// UpdatePodFields applies a partial column update to one pod row.
func (s *Service) UpdatePodFields(roomID string, fields map[string]interface{}) error {
	return s.DB.Model(&models.Pod{}).
		Where("room_id = ?", roomID).
		Updates(fields).Error
}

// DeletePod removes the pod row. Deleting an already-deleted pod is a no-op.
func (s *Service) DeletePod(roomID string) error {
	return s.DB.Delete(&models.Pod{}, "room_id = ?", roomID).Error
}

// SaveSession inserts a voice session row.
func (s *Service) SaveSession(session *models.ActiveSession) error {
	return s.DB.Save(session).Error
}

// GetSession fetches the open session for (roomID, userID), if any.
func (s *Service) GetSession(roomID, userID string) (*models.ActiveSession, error) {
	var session models.ActiveSession
	err := s.DB.First(&session, "room_id = ? AND user_id = ?", roomID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionsByRoom returns every open session inside one room.
func (s *Service) GetSessionsByRoom(roomID string) ([]models.ActiveSession, error) {
	var sessions []models.ActiveSession
	if err := s.DB.Find(&sessions, "room_id = ?", roomID).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetAllSessions returns every persisted session, for startup reconciliation.
func (s *Service) GetAllSessions() ([]models.ActiveSession, error) {
	var sessions []models.ActiveSession
	if err := s.DB.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes one session row.
func (s *Service) DeleteSession(roomID, userID string) error {
	return s.DB.Delete(&models.ActiveSession{}, "room_id = ? AND user_id = ?", roomID, userID).Error
}

// AddVoiceTime upserts the per-user-per-community aggregate, adding seconds
// and incrementing the session counter.
func (s *Service) AddVoiceTime(userID, communityID string, seconds int64) error {
	stat := models.VoiceStat{
		UserID:       userID,
		CommunityID:  communityID,
		TotalSeconds: seconds,
		SessionCount: 1,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "community_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_seconds": gorm.Expr("voice_stats.total_seconds + ?", seconds),
			"session_count": gorm.Expr("voice_stats.session_count + 1"),
		}),
	}).Create(&stat).Error
}

// GetVoiceStat fetches the aggregate for one user in one community.
func (s *Service) GetVoiceStat(userID, communityID string) (*models.VoiceStat, error) {
	var stat models.VoiceStat
	err := s.DB.First(&stat, "user_id = ? AND community_id = ?", userID, communityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// GetUserPrefs returns the user's pod preferences, or zero-value defaults
// when the user never saved any.
func (s *Service) GetUserPrefs(userID string) (*models.UserPrefs, error) {
	var prefs models.UserPrefs
	err := s.DB.First(&prefs, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserPrefs{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// PublishVoiceDuration publishes a finalized-session event to Redis Pub/Sub.
func (s *Service) PublishVoiceDuration(event models.VoiceDurationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, config.VoiceDurationChannel, payload).Err()
}

// PublishOwnershipChanged publishes an ownership-change notice to Redis Pub/Sub.
func (s *Service) PublishOwnershipChanged(event models.OwnershipChangedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, config.OwnershipChangedChannel, payload).Err()
}

// SaveReclaimPrompt maps a prompt nonce to its room in Redis with a TTL.
func (s *Service) SaveReclaimPrompt(promptID, roomID string, ttl time.Duration) error {
	return s.Redis.Set(s.Ctx, "reclaim:"+promptID, roomID, ttl).Err()
}

// GetReclaimPromptRoom resolves a prompt nonce back to its room id.
func (s *Service) GetReclaimPromptRoom(promptID string) (string, error) {
	roomID, err := s.Redis.Get(s.Ctx, "reclaim:"+promptID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return roomID, nil
}

// DeleteReclaimPrompt removes a prompt nonce after accept/deny.
func (s *Service) DeleteReclaimPrompt(promptID string) error {
	return s.Redis.Del(s.Ctx, "reclaim:"+promptID).Err()
}
