package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActiveSession is one user currently inside a pod. Exactly one open row
// may exist per (RoomID, UserID) pair; the row is deleted when the session
// is finalized into VoiceStat.
type ActiveSession struct {
	ID          string `gorm:"primaryKey"`
	RoomID      string `gorm:"index:idx_room_user,unique"`
	UserID      string `gorm:"index:idx_room_user,unique"`
	CommunityID string
	StartTime   time.Time
}

// BeforeCreate is a GORM hook generating a row id when none is set.
func (s *ActiveSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

// Duration returns the elapsed voice time for the session as of now.
func (s *ActiveSession) Duration(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}

// VoiceStat is the cumulative voice-time aggregate per user per community.
// TotalSeconds and SessionCount are monotonically non-decreasing and are
// updated only when a session is finalized.
type VoiceStat struct {
	UserID       string `gorm:"primaryKey"`
	CommunityID  string `gorm:"primaryKey"`
	TotalSeconds int64
	SessionCount int64
}
