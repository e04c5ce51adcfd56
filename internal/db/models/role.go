package models

import "time"

// Role represents a named bundle of permission flags scoped to one community.
// The owner role is created alongside its community and is immutable after
// creation. Role slugs are unique within a community; the composite index
// backs the suffix disambiguation performed at creation time.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint64 `gorm:"primaryKey"`
	// CommunityID is the community this role belongs to.
	CommunityID uint64 `gorm:"not null;uniqueIndex:idx_community_role_slug"`
	// Slug is the role identifier, unique within the community.
	Slug string `gorm:"size:100;not null;uniqueIndex:idx_community_role_slug"`
	// Name is the display name of the role.
	Name string `gorm:"size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// Community is the owning community (loaded via foreign key).
	Community Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE"`
	// Flags are the permission flags owned by this role, one per catalog slug.
	Flags []PermissionFlag `gorm:"foreignKey:RoleID"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
