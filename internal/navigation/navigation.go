// Package navigation derives the community management menu from the
// permissions granted to a user's role. It is a pure projection over current
// role and flag state, recomputed on every call.
package navigation

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/perm"
	"github.com/warga-app/warga-server/internal/rbac"
)

// Page type tokens used by clients to address management screens.
const (
	PageReport     = "report"
	PageRole       = "role"
	PageEdit       = "edit"
	PageSettings   = "settings"
	PageMember     = "member"
	PageAnalytics  = "analytics"
	PagePayment    = "payment"
	PageNavigation = "navigation"
	PageAppearance = "appearance"
	PageFeatures   = "features"
)

// Entry is one item of the projected navigation menu.
type Entry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// entriesBySlug maps a granted permission slug to the menu entries it
// unlocks. Several slugs can unlock the same entry; projection deduplicates
// by name.
var entriesBySlug = map[string][]Entry{
	perm.SlugKelolaKomunitas: {
		{Name: "Report", Type: PageReport},
		{Name: "Role", Type: PageRole},
		{Name: "Edit", Type: PageEdit},
		{Name: "Settings", Type: PageSettings},
		{Name: "Member", Type: PageMember},
	},
	perm.SlugAnalitik:      {{Name: "Analytics", Type: PageAnalytics}},
	perm.SlugPembayaran:    {{Name: "Payment", Type: PagePayment}},
	perm.SlugNavigasi:      {{Name: "Navigation", Type: PageNavigation}},
	perm.SlugTampilan:      {{Name: "Appearance", Type: PageAppearance}},
	perm.SlugAturFitur:     {{Name: "Features", Type: PageFeatures}},
	perm.SlugPengaturan:    {{Name: "Settings", Type: PageSettings}},
	perm.SlugKelolaRoles:   {{Name: "Role", Type: PageRole}},
	perm.SlugKelolaAnggota: {{Name: "Member", Type: PageMember}},
	perm.SlugKelolaPost:    {{Name: "Report", Type: PageReport}},
}

// slugByPage inverts the entry table: the single permission slug required to
// open each page type.
var slugByPage = map[string]string{
	PageReport:     perm.SlugKelolaPost,
	PageRole:       perm.SlugKelolaRoles,
	PageEdit:       perm.SlugKelolaKomunitas,
	PageSettings:   perm.SlugPengaturan,
	PageMember:     perm.SlugKelolaAnggota,
	PageAnalytics:  perm.SlugAnalitik,
	PagePayment:    perm.SlugPembayaran,
	PageNavigation: perm.SlugNavigasi,
	PageAppearance: perm.SlugTampilan,
	PageFeatures:   perm.SlugAturFitur,
}

// Service projects navigation menus from role permissions.
type Service struct {
	db        *gorm.DB
	rbac      *rbac.Service
	community *community.Service
}

// NewService creates a new navigation service.
func NewService(db *gorm.DB, rbacService *rbac.Service, communityService *community.Service) *Service {
	return &Service{db: db, rbac: rbacService, community: communityService}
}

// Project returns the navigation entries unlocked by the user's role in the
// community. It requires a joined membership; pending members and
// non-members get an empty menu, never an error. Entries are deduplicated by
// name, keeping catalog order for determinism.
func (s *Service) Project(communityID, userID uint64) ([]Entry, error) {
	joined, err := s.community.Joined(communityID, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	if !joined {
		return entries, nil
	}

	var membership models.Membership

	err = s.db.Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	var flags []models.PermissionFlag

	err = s.db.Where("role_id = ? AND status = ?", membership.RoleID, true).
		Find(&flags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load permission flags: %w", err)
	}

	granted := make(map[string]bool, len(flags))
	for _, flag := range flags {
		granted[flag.Slug] = true
	}

	seen := make(map[string]bool)

	// iterate the catalog, not the flag rows, so output order is stable
	for _, def := range perm.Catalog() {
		if !granted[def.Slug] {
			continue
		}

		for _, entry := range entriesBySlug[def.Slug] {
			if seen[entry.Name] {
				continue
			}

			seen[entry.Name] = true
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// CheckPageAccess reports whether the user may open the given management
// page. Unknown page types resolve to false.
func (s *Service) CheckPageAccess(communityID, userID uint64, pageType string) (bool, error) {
	slug, ok := slugByPage[pageType]
	if !ok {
		return false, nil
	}

	return s.rbac.Resolve(communityID, userID, slug)
}
