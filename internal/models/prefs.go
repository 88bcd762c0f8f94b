package models

import "github.com/lib/pq"

// UserPrefs stores per-user pod provisioning preferences.
type UserPrefs struct {
	// UserID is the platform user id (primary key).
	UserID string `gorm:"primaryKey"`
	// DefaultLocked denies connect to the community's default role on
	// rooms this user creates.
	DefaultLocked bool
	// AutoWhitelist lists user ids granted connect automatically on every
	// room this user creates.
	AutoWhitelist pq.StringArray `gorm:"type:text[]"`
}
