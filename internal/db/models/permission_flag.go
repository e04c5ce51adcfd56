package models

// PermissionFlag is one boolean capability attached to a role.
// A role's flag set is always seeded from the full permission catalog at
// role-creation time, so every role owns exactly one flag per catalog slug.
type PermissionFlag struct {
	// ID is the unique identifier for the flag.
	ID uint64 `gorm:"primaryKey"`
	// RoleID is the role that owns this flag.
	RoleID uint64 `gorm:"not null;uniqueIndex:idx_role_flag_slug"`
	// Slug is the catalog slug of the capability (e.g. "kelola_roles").
	Slug string `gorm:"size:100;not null;uniqueIndex:idx_role_flag_slug"`
	// Name is the human-readable capability name.
	Name string `gorm:"size:100;not null"`
	// Category groups the flag in the UI (Content, Members, Community).
	Category string `gorm:"size:50;not null"`
	// Status is whether the capability is granted.
	Status bool `gorm:"not null"`
	// Role is the owning role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the PermissionFlag model.
func (PermissionFlag) TableName() string {
	return "permission_flags"
}
