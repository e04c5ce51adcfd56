package post

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/perm"
	"github.com/warga-app/warga-server/internal/rbac"
)

type testEnv struct {
	db          *gorm.DB
	rbac        *rbac.Service
	communities *community.Service
	posts       *Service
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Community{},
		&models.Role{},
		&models.PermissionFlag{},
		&models.Membership{},
		&models.Post{},
		&models.PollOption{},
	)
	require.NoError(t, err, "failed to migrate test database")

	rbacService := rbac.NewService(db)
	communityService := community.NewService(db, rbacService)

	return &testEnv{
		db:          db,
		rbac:        rbacService,
		communities: communityService,
		posts:       NewService(db, rbacService, communityService),
	}
}

func (e *testEnv) createCommunity(t *testing.T, privacy models.Privacy) *models.Community {
	t.Helper()

	com, err := e.communities.Create(1, community.CreateInput{
		Slug:    "kampung-" + string(privacy),
		Name:    "Kampung",
		Privacy: privacy,
	})
	require.NoError(t, err)

	return com
}

func TestCreateThread(t *testing.T) {
	env := setupEnv(t)
	com := env.createCommunity(t, models.PrivacyPublic)

	created, err := env.posts.Create(com.ID, 1, CreateInput{Title: "Halo", Body: "first"})
	require.NoError(t, err)
	assert.Equal(t, models.PostTypeThread, created.Type, "type defaults to thread")
	assert.False(t, created.Pinned)
}

func TestCreatePoll(t *testing.T) {
	env := setupEnv(t)
	com := env.createCommunity(t, models.PrivacyPublic)

	_, err := env.posts.Create(com.ID, 1, CreateInput{
		Type:    models.PostTypePoll,
		Title:   "Pilih satu",
		Options: []string{"only one"},
	})
	require.ErrorIs(t, err, ErrPollOptionsRequired)

	created, err := env.posts.Create(com.ID, 1, CreateInput{
		Type:    models.PostTypePoll,
		Title:   "Pilih satu",
		Options: []string{"kiri", "kanan"},
	})
	require.NoError(t, err)

	loaded, err := env.posts.Get(com.ID, 1, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Options, 2)
	assert.Equal(t, "kiri", loaded.Options[0].Label)
}

func TestCreateRequiresJoinedMembership(t *testing.T) {
	env := setupEnv(t)
	com := env.createCommunity(t, models.PrivacyPrivate)

	// non-member
	_, err := env.posts.Create(com.ID, 9, CreateInput{Title: "x"})
	require.ErrorIs(t, err, ErrNotJoined)

	// pending member
	_, err = env.communities.Join(com.ID, 2)
	require.NoError(t, err)

	_, err = env.posts.Create(com.ID, 2, CreateInput{Title: "x"})
	require.ErrorIs(t, err, ErrNotJoined)

	_, err = env.communities.Approve(com.ID, 1, 2)
	require.NoError(t, err)

	_, err = env.posts.Create(com.ID, 2, CreateInput{Title: "x"})
	require.NoError(t, err)
}

func TestCreateRequiresBuatPost(t *testing.T) {
	env := setupEnv(t)
	com := env.createCommunity(t, models.PrivacyPublic)

	_, err := env.communities.Join(com.ID, 2)
	require.NoError(t, err)

	// strip buat_post from the member role
	var flag models.PermissionFlag
	require.NoError(t, env.db.
		Joins("JOIN roles ON roles.id = permission_flags.role_id").
		Where("roles.community_id = ? AND roles.slug = ?", com.ID, perm.RoleSlugMember).
		Where("permission_flags.slug = ?", perm.SlugBuatPost).
		First(&flag).Error)
	require.NoError(t, env.db.Model(&flag).Update("status", false).Error)

	_, err = env.posts.Create(com.ID, 2, CreateInput{Title: "x"})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListVisibility(t *testing.T) {
	env := setupEnv(t)

	public := env.createCommunity(t, models.PrivacyPublic)
	private := env.createCommunity(t, models.PrivacyPrivate)

	_, err := env.posts.Create(public.ID, 1, CreateInput{Title: "public post"})
	require.NoError(t, err)
	_, err = env.posts.Create(private.ID, 1, CreateInput{Title: "private post"})
	require.NoError(t, err)

	// anyone can read a public community
	posts, total, err := env.posts.List(public.ID, 0, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, posts, 1)

	// outsiders cannot read a private one
	_, _, err = env.posts.List(private.ID, 9, 1, 10)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// the owner can
	_, total, err = env.posts.List(private.ID, 1, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestListPinnedFirst(t *testing.T) {
	env := setupEnv(t)
	com := env.createCommunity(t, models.PrivacyPublic)

	first, err := env.posts.Create(com.ID, 1, CreateInput{Title: "first"})
	require.NoError(t, err)
	second, err := env.posts.Create(com.ID, 1, CreateInput{Title: "second"})
	require.NoError(t, err)

	_, err = env.posts.Pin(com.ID, 1, first.ID, true)
	require.NoError(t, err)

	posts, _, err := env.posts.List(com.ID, 0, 1, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, first.ID, posts[0].ID, "pinned post sorts first")
	assert.Equal(t, second.ID, posts[1].ID)
}

func TestPinRequiresPermission(t *testing.T) {
	env := setupEnv(t)
	com := env.createCommunity(t, models.PrivacyPublic)

	created, err := env.posts.Create(com.ID, 1, CreateInput{Title: "x"})
	require.NoError(t, err)

	_, err = env.communities.Join(com.ID, 2)
	require.NoError(t, err)

	_, err = env.posts.Pin(com.ID, 2, created.ID, true)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDelete(t *testing.T) {
	env := setupEnv(t)
	com := env.createCommunity(t, models.PrivacyPublic)

	_, err := env.communities.Join(com.ID, 2)
	require.NoError(t, err)
	_, err = env.communities.Join(com.ID, 3)
	require.NoError(t, err)

	mine, err := env.posts.Create(com.ID, 2, CreateInput{Title: "mine"})
	require.NoError(t, err)
	theirs, err := env.posts.Create(com.ID, 3, CreateInput{Title: "theirs"})
	require.NoError(t, err)

	// authors may delete their own posts
	require.NoError(t, env.posts.Delete(com.ID, 2, mine.ID))

	// but not other people's without kelola_post
	err = env.posts.Delete(com.ID, 2, theirs.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// the owner holds kelola_post
	require.NoError(t, env.posts.Delete(com.ID, 1, theirs.ID))

	_, err = env.posts.Get(com.ID, 1, theirs.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
