// Package rbac implements the per-community permission core: the read-only
// permission resolver and the role administration operations built on top of
// the role store and the permission catalog.
package rbac

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/perm"
)

// maxSlugAttempts bounds the numeric-suffix disambiguation loop. The unique
// (community_id, slug) index backs the loop, so a collision lost to a
// concurrent create is retried with the next suffix instead of pre-checked.
const maxSlugAttempts = 50

// Service provides permission resolution and role administration for communities.
type Service struct {
	db *gorm.DB
}

// NewService creates a new rbac service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Resolve checks whether the user's role in the community grants the
// permission slug. A missing membership, role or flag resolves to false, not
// an error: callers must treat false as forbidden rather than not-found.
// Membership status is deliberately not filtered here, so a pending member's
// role permissions are still resolvable.
func (s *Service) Resolve(communityID, userID uint64, slug string) (bool, error) {
	var membership models.Membership

	err := s.db.Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to look up membership: %w", err)
	}

	var flag models.PermissionFlag

	err = s.db.Where("role_id = ? AND slug = ?", membership.RoleID, slug).
		First(&flag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to look up permission flag: %w", err)
	}

	return flag.Status, nil
}

// requireManageRoles guards the administration operations behind kelola_roles.
func (s *Service) requireManageRoles(communityID, actorID uint64) error {
	ok, err := s.Resolve(communityID, actorID, perm.SlugKelolaRoles)
	if err != nil {
		return err
	}

	if !ok {
		return ErrPermissionDenied
	}

	return nil
}

// CreateRole creates a custom role in the community and seeds its complete
// flag set from the permission catalog. For every catalog slug the requested
// status wins when supplied; otherwise the catalog default applies, which
// guarantees the created role owns one flag per slug with no extras.
//
// The slug is derived from the name; collisions within the community are
// resolved by appending an incrementing numeric suffix, retried under the
// unique (community_id, slug) index.
func (s *Service) CreateRole(
	communityID, actorID uint64,
	name string,
	requested map[string]bool,
) (*models.Role, error) {
	base := Slugify(name)
	if base == "" {
		return nil, ErrRoleNameRequired
	}

	if err := s.requireManageRoles(communityID, actorID); err != nil {
		return nil, err
	}

	if err := s.communityExists(communityID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}

		role, err := s.createRoleWithSlug(communityID, candidate, name, requested)
		if err == nil {
			return role, nil
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}

		return nil, err
	}

	return nil, ErrSlugExhausted
}

func (s *Service) createRoleWithSlug(
	communityID uint64,
	slug, name string,
	requested map[string]bool,
) (*models.Role, error) {
	role := &models.Role{
		CommunityID: communityID,
		Slug:        slug,
		Name:        name,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}

		for _, def := range perm.Catalog() {
			status := def.Default
			if want, ok := requested[def.Slug]; ok {
				status = want
			}

			flag := models.PermissionFlag{
				RoleID:   role.ID,
				Slug:     def.Slug,
				Name:     def.Name,
				Category: def.Category,
				Status:   status,
			}
			if err := tx.Create(&flag).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, gorm.ErrDuplicatedKey
		}

		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return role, nil
}

// SeedRole creates a role with the given slug and name and one flag per
// catalog entry. When allGranted is true every flag is enabled (the owner
// role); otherwise catalog defaults apply (the lazily created member role).
// Intended to be called inside the community-creation or join transaction.
func SeedRole(tx *gorm.DB, communityID uint64, slug, name string, allGranted bool) (*models.Role, error) {
	role := &models.Role{
		CommunityID: communityID,
		Slug:        slug,
		Name:        name,
	}

	if err := tx.Create(role).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s role: %w", slug, err)
	}

	for _, def := range perm.Catalog() {
		status := def.Default
		if allGranted {
			status = true
		}

		flag := models.PermissionFlag{
			RoleID:   role.ID,
			Slug:     def.Slug,
			Name:     def.Name,
			Category: def.Category,
			Status:   status,
		}
		if err := tx.Create(&flag).Error; err != nil {
			return nil, fmt.Errorf("failed to seed %s flag: %w", def.Slug, err)
		}
	}

	return role, nil
}

// ToggleFlag sets the status of one permission flag. Flags on the owner role
// are immutable. Disabling the kelola_komunitas master switch cascades false
// onto all dependent flags of the same role in one transaction; enabling the
// master does not cascade. Enabling a dependent while the master is off is
// rejected.
func (s *Service) ToggleFlag(communityID, actorID, flagID uint64, status bool) (*models.PermissionFlag, error) {
	if err := s.requireManageRoles(communityID, actorID); err != nil {
		return nil, err
	}

	var flag models.PermissionFlag

	err := s.db.Preload("Role").First(&flag, flagID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlagNotFound
		}

		return nil, fmt.Errorf("failed to load permission flag: %w", err)
	}

	if flag.Role.CommunityID != communityID {
		return nil, ErrFlagNotFound
	}

	if flag.Role.Slug == perm.RoleSlugOwner {
		return nil, ErrOwnerRoleImmutable
	}

	if status && perm.IsDependent(flag.Slug) {
		var master models.PermissionFlag

		err = s.db.Where("role_id = ? AND slug = ?", flag.RoleID, perm.SlugKelolaKomunitas).
			First(&master).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load master flag: %w", err)
		}

		if !master.Status {
			return nil, ErrMasterDisabled
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if flag.Slug == perm.SlugKelolaKomunitas && !status {
			if err := tx.Model(&models.PermissionFlag{}).
				Where("role_id = ? AND slug IN ?", flag.RoleID, perm.Dependents()).
				Update("status", false).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.PermissionFlag{}).
			Where("id = ?", flag.ID).
			Update("status", status).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update permission flag: %w", err)
	}

	flag.Status = status

	return &flag, nil
}

// ReassignMemberRole moves a member to another role of the same community.
// Members holding the owner role can never be reassigned, the acting user
// cannot reassign themself, and reassigning to the currently held role is
// rejected rather than silently accepted.
func (s *Service) ReassignMemberRole(communityID, actorID, targetUserID, newRoleID uint64) (*models.Membership, error) {
	if err := s.requireManageRoles(communityID, actorID); err != nil {
		return nil, err
	}

	if actorID == targetUserID {
		return nil, ErrSelfReassign
	}

	var membership models.Membership

	err := s.db.Preload("Role").
		Where("community_id = ? AND user_id = ?", communityID, targetUserID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}

		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	if membership.Role.Slug == perm.RoleSlugOwner {
		return nil, ErrOwnerNotReassignable
	}

	if membership.RoleID == newRoleID {
		return nil, ErrSameRole
	}

	var newRole models.Role

	err = s.db.Where("id = ? AND community_id = ?", newRoleID, communityID).
		First(&newRole).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	err = s.db.Model(&models.Membership{}).
		Where("id = ?", membership.ID).
		Update("role_id", newRoleID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reassign member role: %w", err)
	}

	membership.RoleID = newRoleID
	membership.Role = newRole

	return &membership, nil
}

// Roles lists the roles of a community with their flags, in creation order.
func (s *Service) Roles(communityID uint64) ([]models.Role, error) {
	if err := s.communityExists(communityID); err != nil {
		return nil, err
	}

	var roles []models.Role

	err := s.db.Preload("Flags").
		Where("community_id = ?", communityID).
		Order("id ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

func (s *Service) communityExists(communityID uint64) error {
	var count int64

	err := s.db.Model(&models.Community{}).
		Where("id = ?", communityID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check community: %w", err)
	}

	if count == 0 {
		return ErrCommunityNotFound
	}

	return nil
}
