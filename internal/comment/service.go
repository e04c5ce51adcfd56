// Package comment implements threaded comments and comment voting on posts.
package comment

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/apperr"
	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/perm"
	"github.com/warga-app/warga-server/internal/post"
	"github.com/warga-app/warga-server/internal/rbac"
)

var (
	// ErrNotFound is returned when the referenced comment does not exist.
	ErrNotFound = apperr.New(apperr.KindNotFound, "comment not found")

	// ErrPermissionDenied is returned when the caller lacks the required permission.
	ErrPermissionDenied = apperr.New(apperr.KindForbidden, "permission denied")

	// ErrNotJoined is returned when a non-member tries to comment or vote.
	ErrNotJoined = apperr.New(apperr.KindForbidden, "full membership required")

	// ErrBodyRequired is returned when creating a comment with an empty body.
	ErrBodyRequired = apperr.New(apperr.KindValidation, "comment body is required")

	// ErrParentMismatch is returned when the parent comment belongs to another post.
	ErrParentMismatch = apperr.New(apperr.KindValidation, "parent comment belongs to a different post")

	// ErrInvalidVote is returned for vote values other than +1 and -1.
	ErrInvalidVote = apperr.New(apperr.KindValidation, "vote value must be +1 or -1")
)

// Service provides comment operations.
type Service struct {
	db        *gorm.DB
	rbac      *rbac.Service
	community *community.Service
	posts     *post.Service
}

// NewService creates a new comment service.
func NewService(db *gorm.DB, rbacService *rbac.Service, communityService *community.Service, postService *post.Service) *Service {
	return &Service{db: db, rbac: rbacService, community: communityService, posts: postService}
}

// Create adds a comment to a post, optionally as a reply to another comment.
// Requires joined membership and the komentar permission; the viewer must
// also be able to see the post.
func (s *Service) Create(communityID, authorID, postID uint64, parentID *uint64, body string) (*models.Comment, error) {
	if body == "" {
		return nil, ErrBodyRequired
	}

	joined, err := s.community.Joined(communityID, authorID)
	if err != nil {
		return nil, err
	}

	if !joined {
		return nil, ErrNotJoined
	}

	if err := s.requirePermission(communityID, authorID, perm.SlugKomentar); err != nil {
		return nil, err
	}

	if _, err := s.posts.Get(communityID, authorID, postID); err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.byID(*parentID)
		if err != nil {
			return nil, err
		}

		if parent.PostID != postID {
			return nil, ErrParentMismatch
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		ParentID: parentID,
		Body:     body,
	}

	if err := s.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// List returns all comments of a post ordered oldest first. The caller
// assembles the reply tree from ParentID. Applies the post visibility rule.
func (s *Service) List(communityID, viewerID, postID uint64) ([]models.Comment, error) {
	if _, err := s.posts.Get(communityID, viewerID, postID); err != nil {
		return nil, err
	}

	var comments []models.Comment

	err := s.db.Where("post_id = ?", postID).Order("id ASC").Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// Vote records an up or down vote on a comment and returns the updated
// comment. Re-voting with the same value is a no-op; voting with the other
// value flips the stored vote and moves the score by two. Requires joined
// membership and the vote permission.
func (s *Service) Vote(communityID, userID, commentID uint64, value int) (*models.Comment, error) {
	if value != 1 && value != -1 {
		return nil, ErrInvalidVote
	}

	joined, err := s.community.Joined(communityID, userID)
	if err != nil {
		return nil, err
	}

	if !joined {
		return nil, ErrNotJoined
	}

	if err := s.requirePermission(communityID, userID, perm.SlugVote); err != nil {
		return nil, err
	}

	comment, err := s.byID(commentID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CommentVote

		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.CommentVote{CommentID: commentID, UserID: userID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}

			return s.adjustScore(tx, comment, int64(value))
		case err != nil:
			return err
		case existing.Value == value:
			return nil
		default:
			err := tx.Model(&models.CommentVote{}).
				Where("comment_id = ? AND user_id = ?", commentID, userID).
				Update("value", value).Error
			if err != nil {
				return err
			}

			return s.adjustScore(tx, comment, int64(value-existing.Value))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	return comment, nil
}

// Delete removes a comment. Allowed for the author and for holders of the
// kelola_post moderation permission.
func (s *Service) Delete(communityID, actorID, commentID uint64) error {
	comment, err := s.byID(commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID != actorID {
		if err := s.requirePermission(communityID, actorID, perm.SlugKelolaPost); err != nil {
			return err
		}
	}

	if err := s.db.Delete(comment).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

// Parent loads a comment by ID without visibility checks. Used to resolve
// the author of a replied-to comment.
func (s *Service) Parent(commentID uint64) (*models.Comment, error) {
	return s.byID(commentID)
}

func (s *Service) adjustScore(tx *gorm.DB, comment *models.Comment, delta int64) error {
	err := tx.Model(comment).
		Update("score", gorm.Expr("score + ?", delta)).Error
	if err != nil {
		return err
	}

	comment.Score += delta

	return nil
}

func (s *Service) byID(commentID uint64) (*models.Comment, error) {
	var comment models.Comment

	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load comment: %w", err)
	}

	return &comment, nil
}

func (s *Service) requirePermission(communityID, userID uint64, slug string) error {
	ok, err := s.rbac.Resolve(communityID, userID, slug)
	if err != nil {
		return err
	}

	if !ok {
		return ErrPermissionDenied
	}

	return nil
}
