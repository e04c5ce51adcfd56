// Package community implements community lifecycle and membership: creation
// with the implicit owner role, the join flow with pending moderation for
// non-public communities, and member administration.
package community

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/perm"
	"github.com/warga-app/warga-server/internal/rbac"
)

// slugChangeInterval is the minimum time between two slug changes.
const slugChangeInterval = 7 * 24 * time.Hour

var slugRE = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,98}[a-z0-9]$`)

// Service provides community lifecycle and membership operations.
type Service struct {
	db   *gorm.DB
	rbac *rbac.Service
}

// NewService creates a new community service.
func NewService(db *gorm.DB, rbacService *rbac.Service) *Service {
	return &Service{db: db, rbac: rbacService}
}

// CreateInput holds the caller-supplied fields for a new community.
type CreateInput struct {
	Slug    string
	Name    string
	Privacy models.Privacy
	Avatar  string
	Color   string
	Tagline string
}

// Create creates a community together with its owner role (every catalog flag
// enabled) and the creator's joined membership, all in one transaction.
func (s *Service) Create(ownerID uint64, in CreateInput) (*models.Community, error) {
	if in.Name == "" {
		return nil, ErrNameRequired
	}

	if !slugRE.MatchString(in.Slug) {
		return nil, ErrInvalidSlug
	}

	if in.Privacy == "" {
		in.Privacy = models.PrivacyPublic
	}

	com := &models.Community{
		Slug:    in.Slug,
		Name:    in.Name,
		Privacy: in.Privacy,
		OwnerID: ownerID,
		Avatar:  in.Avatar,
		Color:   in.Color,
		Tagline: in.Tagline,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(com).Error; err != nil {
			return err
		}

		ownerRole, err := rbac.SeedRole(tx, com.ID, perm.RoleSlugOwner, "Owner", true)
		if err != nil {
			return err
		}

		membership := models.Membership{
			CommunityID: com.ID,
			UserID:      ownerID,
			RoleID:      ownerRole.ID,
			Status:      models.MembershipJoined,
		}

		return tx.Create(&membership).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}

		return nil, fmt.Errorf("failed to create community: %w", err)
	}

	return com, nil
}

// BySlug loads a community by its slug.
func (s *Service) BySlug(slug string) (*models.Community, error) {
	var com models.Community

	err := s.db.Where("slug = ?", slug).First(&com).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load community: %w", err)
	}

	return &com, nil
}

// ByID loads a community by its primary key.
func (s *Service) ByID(communityID uint64) (*models.Community, error) {
	return s.byID(communityID)
}

// UpdateSlug changes the community slug. Requires the pengaturan permission
// and is rate-limited to one change per seven days.
func (s *Service) UpdateSlug(communityID, actorID uint64, newSlug string) (*models.Community, error) {
	if !slugRE.MatchString(newSlug) {
		return nil, ErrInvalidSlug
	}

	ok, err := s.rbac.Resolve(communityID, actorID, perm.SlugPengaturan)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrPermissionDenied
	}

	com, err := s.byID(communityID)
	if err != nil {
		return nil, err
	}

	if com.SlugChangedAt != nil && time.Since(*com.SlugChangedAt) < slugChangeInterval {
		return nil, ErrSlugRateLimited
	}

	now := time.Now()

	err = s.db.Model(com).Updates(map[string]interface{}{
		"slug":            newSlug,
		"slug_changed_at": now,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}

		return nil, fmt.Errorf("failed to update slug: %w", err)
	}

	com.Slug = newSlug
	com.SlugChangedAt = &now

	return com, nil
}

// Join adds the user to the community. Public communities join immediately;
// private and restricted communities create a pending request awaiting
// approval. The default member role is created lazily, once per community,
// with catalog defaults.
func (s *Service) Join(communityID, userID uint64) (*models.Membership, error) {
	com, err := s.byID(communityID)
	if err != nil {
		return nil, err
	}

	var existing models.Membership

	err = s.db.Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyMember
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	status := models.MembershipPending
	if com.Privacy == models.PrivacyPublic {
		status = models.MembershipJoined
	}

	membership := &models.Membership{
		CommunityID: communityID,
		UserID:      userID,
		Status:      status,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		role, err := memberRole(tx, communityID)
		if err != nil {
			return err
		}

		membership.RoleID = role.ID

		return tx.Create(membership).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}

		return nil, fmt.Errorf("failed to join community: %w", err)
	}

	return membership, nil
}

// memberRole returns the community's default member role, creating it with
// catalog defaults the first time a user joins.
func memberRole(tx *gorm.DB, communityID uint64) (*models.Role, error) {
	var role models.Role

	err := tx.Where("community_id = ? AND slug = ?", communityID, perm.RoleSlugMember).
		First(&role).Error
	if err == nil {
		return &role, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load member role: %w", err)
	}

	return rbac.SeedRole(tx, communityID, perm.RoleSlugMember, perm.RoleNameMember, false)
}

// Approve turns a pending membership into a joined one.
// Requires the terima_anggota permission.
func (s *Service) Approve(communityID, actorID, targetUserID uint64) (*models.Membership, error) {
	if err := s.requirePermission(communityID, actorID, perm.SlugTerimaAnggota); err != nil {
		return nil, err
	}

	membership, err := s.membership(communityID, targetUserID)
	if err != nil {
		return nil, err
	}

	if membership.Status != models.MembershipPending {
		return nil, ErrNotPending
	}

	err = s.db.Model(membership).Update("status", models.MembershipJoined).Error
	if err != nil {
		return nil, fmt.Errorf("failed to approve membership: %w", err)
	}

	membership.Status = models.MembershipJoined

	return membership, nil
}

// Reject removes a pending join request.
// Requires the terima_anggota permission.
func (s *Service) Reject(communityID, actorID, targetUserID uint64) error {
	if err := s.requirePermission(communityID, actorID, perm.SlugTerimaAnggota); err != nil {
		return err
	}

	membership, err := s.membership(communityID, targetUserID)
	if err != nil {
		return err
	}

	if membership.Status != models.MembershipPending {
		return ErrNotPending
	}

	return s.deleteMembership(membership)
}

// Kick removes a joined member. The owner can never be kicked.
// Requires the keluarkan_anggota permission.
func (s *Service) Kick(communityID, actorID, targetUserID uint64) error {
	if err := s.requirePermission(communityID, actorID, perm.SlugKeluarkanAnggota); err != nil {
		return err
	}

	membership, err := s.membershipWithRole(communityID, targetUserID)
	if err != nil {
		return err
	}

	if membership.Role.Slug == perm.RoleSlugOwner {
		return ErrOwnerProtected
	}

	return s.deleteMembership(membership)
}

// Leave removes the user's own membership. The owner cannot leave their
// community.
func (s *Service) Leave(communityID, userID uint64) error {
	membership, err := s.membershipWithRole(communityID, userID)
	if err != nil {
		return err
	}

	if membership.Role.Slug == perm.RoleSlugOwner {
		return ErrOwnerProtected
	}

	return s.deleteMembership(membership)
}

// Joined reports whether the user is a full (not pending) member. This is the
// status-gated check used by content visibility and the navigation projector,
// distinct from the resolver's membership lookup which ignores status.
func (s *Service) Joined(communityID, userID uint64) (bool, error) {
	var count int64

	err := s.db.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ? AND status = ?",
			communityID, userID, models.MembershipJoined).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return count > 0, nil
}

// Members lists the memberships of a community with their roles.
func (s *Service) Members(communityID uint64, status models.MembershipStatus) ([]models.Membership, error) {
	if _, err := s.byID(communityID); err != nil {
		return nil, err
	}

	tx := s.db.Preload("Role").Where("community_id = ?", communityID)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}

	var memberships []models.Membership
	if err := tx.Order("id ASC").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return memberships, nil
}

func (s *Service) requirePermission(communityID, actorID uint64, slug string) error {
	ok, err := s.rbac.Resolve(communityID, actorID, slug)
	if err != nil {
		return err
	}

	if !ok {
		return ErrPermissionDenied
	}

	return nil
}

func (s *Service) byID(communityID uint64) (*models.Community, error) {
	var com models.Community

	err := s.db.First(&com, communityID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load community: %w", err)
	}

	return &com, nil
}

func (s *Service) membership(communityID, userID uint64) (*models.Membership, error) {
	var membership models.Membership

	err := s.db.Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}

		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return &membership, nil
}

func (s *Service) membershipWithRole(communityID, userID uint64) (*models.Membership, error) {
	var membership models.Membership

	err := s.db.Preload("Role").
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}

		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return &membership, nil
}

func (s *Service) deleteMembership(membership *models.Membership) error {
	if err := s.db.Delete(membership).Error; err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	return nil
}
