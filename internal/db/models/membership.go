package models

import "time"

// MembershipStatus represents the join-status of a membership.
type MembershipStatus string

const (
	// MembershipPending is a join request awaiting moderation.
	MembershipPending MembershipStatus = "pending"
	// MembershipJoined is full membership.
	MembershipJoined MembershipStatus = "joined"
)

// Membership links a user to a community with exactly one role and a
// join-status. At most one membership row exists per (community, user) pair;
// the row is created on join and deleted on leave, kick or reject.
type Membership struct {
	// ID is the unique identifier for the membership.
	ID uint64 `gorm:"primaryKey"`
	// CommunityID is the community being joined.
	CommunityID uint64 `gorm:"not null;uniqueIndex:idx_community_user"`
	// UserID is the joining user.
	UserID uint64 `gorm:"not null;uniqueIndex:idx_community_user;index"`
	// RoleID is the single role held by the user in this community.
	RoleID uint64 `gorm:"not null;index"`
	// Status is pending or joined.
	Status MembershipStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	// Community is the associated community (loaded via foreign key).
	Community Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the membership was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Membership model.
func (Membership) TableName() string {
	return "memberships"
}
