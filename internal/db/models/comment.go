package models

import "time"

// Comment represents a comment on a post. Replies reference their parent
// comment, forming a nested thread. Score is the running sum of votes and is
// adjusted in the same transaction as the vote row.
type Comment struct {
	ID       uint64 `gorm:"primaryKey"`
	PostID   uint64 `gorm:"not null;index"`
	AuthorID uint64 `gorm:"not null;index"`
	// ParentID references the parent comment for replies, nil for top-level comments.
	ParentID  *uint64 `gorm:"index"`
	Body      string  `gorm:"type:text;not null"`
	Score     int64   `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

// TableName specifies the database table name for the Comment model.
func (Comment) TableName() string {
	return "comments"
}

// CommentVote records one user's vote on one comment. Value is +1 or -1;
// voting again with the other value flips the stored vote.
type CommentVote struct {
	CommentID uint64 `gorm:"primaryKey;column:comment_id"`
	UserID    uint64 `gorm:"primaryKey;column:user_id"`
	Value     int    `gorm:"not null"`
	CreatedAt time.Time
}

// TableName specifies the database table name for the CommentVote model.
func (CommentVote) TableName() string {
	return "comment_votes"
}
