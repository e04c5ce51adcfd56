package models

import "time"

// PostType represents the content format of a post.
type PostType string

const (
	// PostTypeThread is a regular discussion thread.
	PostTypeThread PostType = "thread"
	// PostTypePoll is a poll with selectable options.
	PostTypePoll PostType = "poll"
	// PostTypeQA is a question-and-answer post.
	PostTypeQA PostType = "qa"
	// PostTypeVideo is a short video post.
	PostTypeVideo PostType = "video"
)

// Post represents a piece of content published in a community.
type Post struct {
	ID          uint64   `gorm:"primaryKey"`
	CommunityID uint64   `gorm:"not null;index"`
	AuthorID    uint64   `gorm:"not null;index"`
	Type        PostType `gorm:"type:varchar(20);not null;default:'thread'"`
	Title       string   `gorm:"size:255;not null"`
	Body        string   `gorm:"type:text"`
	Pinned      bool     `gorm:"not null;default:false"`
	// MediaURL points at the uploaded video for video posts. Upload and
	// transcoding happen outside this service.
	MediaURL string `gorm:"size:255"`
	// Options are the selectable options for poll posts.
	Options   []PollOption `gorm:"foreignKey:PostID"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

// TableName specifies the database table name for the Post model.
func (Post) TableName() string {
	return "posts"
}

// PollOption is one selectable option of a poll post.
type PollOption struct {
	ID     uint64 `gorm:"primaryKey"`
	PostID uint64 `gorm:"not null;index"`
	Label  string `gorm:"size:255;not null"`
	Votes  int64  `gorm:"not null;default:0"`
}

// TableName specifies the database table name for the PollOption model.
func (PollOption) TableName() string {
	return "poll_options"
}
