// Package post implements community content: threads, polls, Q&A and short
// video posts. Every operation is gated on the caller's permission flags via
// the rbac resolver; posting additionally requires full (joined) membership.
package post

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/apperr"
	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/perm"
	"github.com/warga-app/warga-server/internal/rbac"
)

const (
	// DefaultPageSize for post listings.
	DefaultPageSize = 25
	// MaxPageSize clamps the page size upper bound.
	MaxPageSize = 100
)

var (
	// ErrNotFound is returned when the referenced post does not exist.
	ErrNotFound = apperr.New(apperr.KindNotFound, "post not found")

	// ErrPermissionDenied is returned when the caller lacks the required permission.
	ErrPermissionDenied = apperr.New(apperr.KindForbidden, "permission denied")

	// ErrNotJoined is returned when a pending member or non-member tries to post.
	ErrNotJoined = apperr.New(apperr.KindForbidden, "full membership required")

	// ErrTitleRequired is returned when creating a post without a title.
	ErrTitleRequired = apperr.New(apperr.KindValidation, "post title is required")

	// ErrPollOptionsRequired is returned when a poll has fewer than two options.
	ErrPollOptionsRequired = apperr.New(apperr.KindValidation, "a poll needs at least two options")
)

// Service provides post operations.
type Service struct {
	db        *gorm.DB
	rbac      *rbac.Service
	community *community.Service
}

// NewService creates a new post service.
func NewService(db *gorm.DB, rbacService *rbac.Service, communityService *community.Service) *Service {
	return &Service{db: db, rbac: rbacService, community: communityService}
}

// CreateInput holds the caller-supplied fields for a new post.
type CreateInput struct {
	Type     models.PostType
	Title    string
	Body     string
	MediaURL string
	Options  []string // poll options, required for poll posts
}

// Create publishes a post in the community. Requires joined membership and
// the buat_post permission. Poll posts get their options created in the same
// transaction.
func (s *Service) Create(communityID, authorID uint64, in CreateInput) (*models.Post, error) {
	if in.Title == "" {
		return nil, ErrTitleRequired
	}

	if in.Type == "" {
		in.Type = models.PostTypeThread
	}

	if in.Type == models.PostTypePoll && len(in.Options) < 2 {
		return nil, ErrPollOptionsRequired
	}

	joined, err := s.community.Joined(communityID, authorID)
	if err != nil {
		return nil, err
	}

	if !joined {
		return nil, ErrNotJoined
	}

	if err := s.requirePermission(communityID, authorID, perm.SlugBuatPost); err != nil {
		return nil, err
	}

	post := &models.Post{
		CommunityID: communityID,
		AuthorID:    authorID,
		Type:        in.Type,
		Title:       in.Title,
		Body:        in.Body,
		MediaURL:    in.MediaURL,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		for _, label := range in.Options {
			option := models.PollOption{PostID: post.ID, Label: label}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

// List returns a page of the community's posts, pinned posts first. Posts of
// a public community are visible to anyone; other communities require the
// lihat_post permission.
func (s *Service) List(communityID, viewerID uint64, page, pageSize int) ([]models.Post, int64, error) {
	com, err := s.community.ByID(communityID)
	if err != nil {
		return nil, 0, err
	}

	if com.Privacy != models.PrivacyPublic {
		if err := s.requirePermission(communityID, viewerID, perm.SlugLihatPost); err != nil {
			return nil, 0, err
		}
	}

	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	tx := s.db.Model(&models.Post{}).Where("community_id = ?", communityID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []models.Post

	err = tx.Preload("Options").
		Order("pinned DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, total, nil
}

// Get loads a single post with its poll options, applying the same
// visibility rule as List.
func (s *Service) Get(communityID, viewerID, postID uint64) (*models.Post, error) {
	com, err := s.community.ByID(communityID)
	if err != nil {
		return nil, err
	}

	if com.Privacy != models.PrivacyPublic {
		if err := s.requirePermission(communityID, viewerID, perm.SlugLihatPost); err != nil {
			return nil, err
		}
	}

	return s.byID(communityID, postID)
}

// Pin sets or clears the pinned marker. Requires the pin_post permission.
func (s *Service) Pin(communityID, actorID, postID uint64, pinned bool) (*models.Post, error) {
	if err := s.requirePermission(communityID, actorID, perm.SlugPinPost); err != nil {
		return nil, err
	}

	post, err := s.byID(communityID, postID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(post).Update("pinned", pinned).Error; err != nil {
		return nil, fmt.Errorf("failed to pin post: %w", err)
	}

	post.Pinned = pinned

	return post, nil
}

// Delete removes a post. Allowed for the author and for holders of the
// kelola_post moderation permission.
func (s *Service) Delete(communityID, actorID, postID uint64) error {
	post, err := s.byID(communityID, postID)
	if err != nil {
		return err
	}

	if post.AuthorID != actorID {
		if err := s.requirePermission(communityID, actorID, perm.SlugKelolaPost); err != nil {
			return err
		}
	}

	if err := s.db.Delete(post).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

func (s *Service) byID(communityID, postID uint64) (*models.Post, error) {
	var post models.Post

	err := s.db.Preload("Options").
		Where("community_id = ?", communityID).
		First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	return &post, nil
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
