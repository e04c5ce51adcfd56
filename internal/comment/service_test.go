package comment

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/post"
	"github.com/warga-app/warga-server/internal/rbac"
)

type testEnv struct {
	db       *gorm.DB
	comments *Service
	posts    *post.Service

	communityID uint64
	postID      uint64
}

// setupEnv builds a public community owned by user 1 with users 2 and 3
// joined and one post to comment on.
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
		&models.Comment{},
		&models.CommentVote{},
	)
	require.NoError(t, err, "failed to migrate test database")

	rbacService := rbac.NewService(db)
	communityService := community.NewService(db, rbacService)
	postService := post.NewService(db, rbacService, communityService)

	com, err := communityService.Create(1, community.CreateInput{Slug: "kampung", Name: "K"})
	require.NoError(t, err)

	_, err = communityService.Join(com.ID, 2)
	require.NoError(t, err)
	_, err = communityService.Join(com.ID, 3)
	require.NoError(t, err)

	created, err := postService.Create(com.ID, 1, post.CreateInput{Title: "Halo"})
	require.NoError(t, err)

	return &testEnv{
		db:          db,
		comments:    NewService(db, rbacService, communityService, postService),
		posts:       postService,
		communityID: com.ID,
		postID:      created.ID,
	}
}

func TestCreateAndReply(t *testing.T) {
	env := setupEnv(t)

	top, err := env.comments.Create(env.communityID, 2, env.postID, nil, "top level")
	require.NoError(t, err)
	assert.Nil(t, top.ParentID)

	reply, err := env.comments.Create(env.communityID, 3, env.postID, &top.ID, "a reply")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	all, err := env.comments.List(env.communityID, 2, env.postID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateValidation(t *testing.T) {
	env := setupEnv(t)

	_, err := env.comments.Create(env.communityID, 2, env.postID, nil, "")
	require.ErrorIs(t, err, ErrBodyRequired)

	// non-member cannot comment
	_, err = env.comments.Create(env.communityID, 9, env.postID, nil, "hi")
	require.ErrorIs(t, err, ErrNotJoined)

	// missing post
	_, err = env.comments.Create(env.communityID, 2, 999, nil, "hi")
	require.ErrorIs(t, err, post.ErrNotFound)

	// parent from another post
	other, err := env.posts.Create(env.communityID, 1, post.CreateInput{Title: "other"})
	require.NoError(t, err)

	top, err := env.comments.Create(env.communityID, 2, env.postID, nil, "top")
	require.NoError(t, err)

	_, err = env.comments.Create(env.communityID, 2, other.ID, &top.ID, "wrong thread")
	require.ErrorIs(t, err, ErrParentMismatch)
}

func TestVoteFlip(t *testing.T) {
	env := setupEnv(t)

	top, err := env.comments.Create(env.communityID, 2, env.postID, nil, "vote me")
	require.NoError(t, err)

	voted, err := env.comments.Vote(env.communityID, 3, top.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, voted.Score)

	// same vote again is a no-op
	voted, err = env.comments.Vote(env.communityID, 3, top.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, voted.Score)

	// flipping moves the score by two
	voted, err = env.comments.Vote(env.communityID, 3, top.ID, -1)
	require.NoError(t, err)
	assert.EqualValues(t, -1, voted.Score)

	// a second voter stacks on top
	voted, err = env.comments.Vote(env.communityID, 1, top.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, voted.Score)

	var stored models.Comment
	require.NoError(t, env.db.First(&stored, top.ID).Error)
	assert.EqualValues(t, 0, stored.Score)
}

func TestVoteValidation(t *testing.T) {
	env := setupEnv(t)

	top, err := env.comments.Create(env.communityID, 2, env.postID, nil, "vote me")
	require.NoError(t, err)

	_, err = env.comments.Vote(env.communityID, 3, top.ID, 2)
	require.ErrorIs(t, err, ErrInvalidVote)

	_, err = env.comments.Vote(env.communityID, 9, top.ID, 1)
	require.ErrorIs(t, err, ErrNotJoined)

	_, err = env.comments.Vote(env.communityID, 3, 999, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteModeration(t *testing.T) {
	env := setupEnv(t)

	mine, err := env.comments.Create(env.communityID, 2, env.postID, nil, "mine")
	require.NoError(t, err)
	theirs, err := env.comments.Create(env.communityID, 3, env.postID, nil, "theirs")
	require.NoError(t, err)

	// authors may delete their own comments
	require.NoError(t, env.comments.Delete(env.communityID, 2, mine.ID))

	// but not other people's without kelola_post
	err = env.comments.Delete(env.communityID, 2, theirs.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// the owner holds kelola_post
	require.NoError(t, env.comments.Delete(env.communityID, 1, theirs.ID))

	all, err := env.comments.List(env.communityID, 1, env.postID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
