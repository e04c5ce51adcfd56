package models

import "time"

// Session is a bearer token session. Expired rows are purged by the daemon's
// housekeeping job.
type Session struct {
	ID        uint64 `gorm:"primaryKey"`
	Token     string `gorm:"unique;size:64;not null"`
	UserID    uint64 `gorm:"not null;index"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TableName specifies the database table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}
