package models

import "time"

// Notification is a persisted per-user notification. Each row is also
// published as an event to the notification stream when one is configured.
type Notification struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"not null;index"`
	// Kind names the event that produced the notification (e.g. "member.approved").
	Kind string `gorm:"size:100;not null"`
	// Payload is the JSON-encoded event data.
	Payload   string `gorm:"type:text"`
	Read      bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName specifies the database table name for the Notification model.
func (Notification) TableName() string {
	return "notifications"
}
