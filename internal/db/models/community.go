package models

import "time"

// Privacy represents the visibility mode of a community.
type Privacy string

const (
	// PrivacyPublic communities are visible and joinable by anyone.
	PrivacyPublic Privacy = "public"
	// PrivacyPrivate communities require a join request to be approved.
	PrivacyPrivate Privacy = "private"
	// PrivacyRestricted communities are visible but joining requires approval.
	PrivacyRestricted Privacy = "restricted"
)

// Community represents a tenant workspace that owns roles, members and posts.
// The owner role and the owner's membership are created atomically with the
// community itself.
type Community struct {
	// ID is the unique identifier for the community.
	ID uint64 `gorm:"primaryKey"`
	// Slug is the unique, human-chosen URL identifier.
	Slug string `gorm:"unique;size:100;not null"`
	// Name is the display name of the community.
	Name string `gorm:"size:100;not null"`
	// Privacy controls visibility and the join flow (public, private, restricted).
	Privacy Privacy `gorm:"type:varchar(20);not null;default:'public'"`
	// OwnerID is the user who created the community.
	OwnerID uint64 `gorm:"not null;index"`
	// Avatar is the URL of the community avatar image.
	Avatar string `gorm:"size:255"`
	// Color is the accent color used by clients.
	Color string `gorm:"size:20"`
	// Tagline is a short description shown under the name.
	Tagline string `gorm:"size:255"`
	// SlugChangedAt records the last slug change; the slug may change at most
	// once per seven days.
	SlugChangedAt *time.Time
	// CreatedAt is the timestamp when the community was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the community was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Community model.
func (Community) TableName() string {
	return "communities"
}
