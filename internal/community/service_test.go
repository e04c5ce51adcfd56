package community

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/perm"
	"github.com/warga-app/warga-server/internal/rbac"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Community{},
		&models.Role{},
		&models.PermissionFlag{},
		&models.Membership{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)

	return NewService(db, rbac.NewService(db)), db
}

func TestCreateSeedsOwner(t *testing.T) {
	service, db := setupService(t)

	com, err := service.Create(1, CreateInput{Slug: "kampung", Name: "Kampung"})
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyPublic, com.Privacy, "privacy defaults to public")

	var role models.Role
	require.NoError(t, db.Preload("Flags").
		Where("community_id = ? AND slug = ?", com.ID, perm.RoleSlugOwner).
		First(&role).Error)
	require.Len(t, role.Flags, perm.Len())

	for _, flag := range role.Flags {
		assert.True(t, flag.Status, "owner flag %s must be granted", flag.Slug)
	}

	joined, err := service.Joined(com.ID, 1)
	require.NoError(t, err)
	assert.True(t, joined, "creator becomes a joined member")
}

func TestCreateValidation(t *testing.T) {
	service, _ := setupService(t)

	_, err := service.Create(1, CreateInput{Slug: "ok-slug", Name: ""})
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = service.Create(1, CreateInput{Slug: "Bad Slug!", Name: "X"})
	require.ErrorIs(t, err, ErrInvalidSlug)

	_, err = service.Create(1, CreateInput{Slug: "kampung", Name: "First"})
	require.NoError(t, err)

	_, err = service.Create(2, CreateInput{Slug: "kampung", Name: "Second"})
	require.ErrorIs(t, err, ErrSlugTaken)
}

func TestJoinPublicCommunity(t *testing.T) {
	service, db := setupService(t)

	com, err := service.Create(1, CreateInput{Slug: "kampung", Name: "Kampung"})
	require.NoError(t, err)

	membership, err := service.Join(com.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipJoined, membership.Status)

	// the default member role is created lazily with catalog defaults
	var role models.Role
	require.NoError(t, db.Preload("Flags").
		Where("community_id = ? AND slug = ?", com.ID, perm.RoleSlugMember).
		First(&role).Error)
	require.Len(t, role.Flags, perm.Len())

	for _, flag := range role.Flags {
		def, ok := perm.Lookup(flag.Slug)
		require.True(t, ok)
		assert.Equal(t, def.Default, flag.Status, "member flag %s", flag.Slug)
	}

	// joining twice is rejected
	_, err = service.Join(com.ID, 2)
	require.ErrorIs(t, err, ErrAlreadyMember)

	// only one member role exists no matter how many join
	_, err = service.Join(com.ID, 3)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Role{}).
		Where("community_id = ? AND slug = ?", com.ID, perm.RoleSlugMember).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestJoinModeratedCommunities(t *testing.T) {
	service, _ := setupService(t)

	for _, privacy := range []models.Privacy{models.PrivacyPrivate, models.PrivacyRestricted} {
		com, err := service.Create(1, CreateInput{
			Slug:    "c-" + string(privacy),
			Name:    "Moderated",
			Privacy: privacy,
		})
		require.NoError(t, err)

		membership, err := service.Join(com.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, models.MembershipPending, membership.Status)

		joined, err := service.Joined(com.ID, 2)
		require.NoError(t, err)
		assert.False(t, joined, "pending members are not joined")
	}
}

func TestApproveAndReject(t *testing.T) {
	service, _ := setupService(t)

	com, err := service.Create(1, CreateInput{Slug: "kampung", Name: "K", Privacy: models.PrivacyPrivate})
	require.NoError(t, err)

	_, err = service.Join(com.ID, 2)
	require.NoError(t, err)
	_, err = service.Join(com.ID, 3)
	require.NoError(t, err)

	// a plain member cannot moderate
	_, err = service.Approve(com.ID, 2, 3)
	require.ErrorIs(t, err, ErrPermissionDenied)

	membership, err := service.Approve(com.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipJoined, membership.Status)

	// approving twice trips the pending check
	_, err = service.Approve(com.ID, 1, 2)
	require.ErrorIs(t, err, ErrNotPending)

	require.NoError(t, service.Reject(com.ID, 1, 3))

	joined, err := service.Joined(com.ID, 3)
	require.NoError(t, err)
	assert.False(t, joined)

	err = service.Reject(com.ID, 1, 3)
	require.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestKickAndLeave(t *testing.T) {
	service, _ := setupService(t)

	com, err := service.Create(1, CreateInput{Slug: "kampung", Name: "K"})
	require.NoError(t, err)

	_, err = service.Join(com.ID, 2)
	require.NoError(t, err)

	// members cannot kick
	err = service.Kick(com.ID, 2, 1)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// nobody kicks the owner
	err = service.Kick(com.ID, 1, 1)
	require.ErrorIs(t, err, ErrOwnerProtected)

	// the owner cannot leave either
	err = service.Leave(com.ID, 1)
	require.ErrorIs(t, err, ErrOwnerProtected)

	require.NoError(t, service.Kick(com.ID, 1, 2))

	_, err = service.Join(com.ID, 2)
	require.NoError(t, err)
	require.NoError(t, service.Leave(com.ID, 2))

	joined, err := service.Joined(com.ID, 2)
	require.NoError(t, err)
	assert.False(t, joined)
}

func TestUpdateSlug(t *testing.T) {
	service, db := setupService(t)

	com, err := service.Create(1, CreateInput{Slug: "kampung", Name: "K"})
	require.NoError(t, err)

	_, err = service.Join(com.ID, 2)
	require.NoError(t, err)

	// pengaturan is required
	_, err = service.UpdateSlug(com.ID, 2, "new-slug")
	require.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := service.UpdateSlug(com.ID, 1, "new-slug")
	require.NoError(t, err)
	assert.Equal(t, "new-slug", updated.Slug)
	require.NotNil(t, updated.SlugChangedAt)

	// a second change inside the seven-day window is rejected
	_, err = service.UpdateSlug(com.ID, 1, "newer-slug")
	require.ErrorIs(t, err, ErrSlugRateLimited)

	// age the last change past the window
	old := time.Now().Add(-8 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.Community{}).
		Where("id = ?", com.ID).
		Update("slug_changed_at", old).Error)

	_, err = service.UpdateSlug(com.ID, 1, "newer-slug")
	require.NoError(t, err)

	_, err = service.UpdateSlug(com.ID, 1, "Bad Slug")
	require.ErrorIs(t, err, ErrInvalidSlug)
}

func TestBySlug(t *testing.T) {
	service, _ := setupService(t)

	created, err := service.Create(1, CreateInput{Slug: "kampung", Name: "K"})
	require.NoError(t, err)

	found, err := service.BySlug("kampung")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = service.BySlug("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMembers(t *testing.T) {
	service, _ := setupService(t)

	com, err := service.Create(1, CreateInput{Slug: "kampung", Name: "K", Privacy: models.PrivacyRestricted})
	require.NoError(t, err)

	_, err = service.Join(com.ID, 2)
	require.NoError(t, err)

	all, err := service.Members(com.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := service.Members(com.ID, models.MembershipPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.EqualValues(t, 2, pending[0].UserID)
	assert.Equal(t, perm.RoleSlugMember, pending[0].Role.Slug)

	_, err = service.Members(999, "")
	require.ErrorIs(t, err, ErrNotFound)
}
