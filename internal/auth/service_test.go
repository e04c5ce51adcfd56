package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/otp"
)

// captureDispatcher records issued codes instead of sending them.
type captureDispatcher struct {
	lastEmail string
	lastCode  string
}

func (d *captureDispatcher) Send(_ context.Context, email, code string) error {
	d.lastEmail = email
	d.lastCode = code

	return nil
}

func setupService(t *testing.T) (*Service, *captureDispatcher, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Session{})
	require.NoError(t, err, "failed to migrate test database")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
	})

	dispatcher := &captureDispatcher{}
	service := NewService(db, Options{
		Codes:      otp.NewStore(client, 0),
		Dispatcher: dispatcher,
	})

	return service, dispatcher, db
}

func register(t *testing.T, service *Service, dispatcher *captureDispatcher, email, username, password string) (*models.User, *models.Session) {
	t.Helper()

	ctx := context.Background()

	require.NoError(t, service.RequestCode(ctx, otp.ScopeRegister, email))
	require.Equal(t, email, dispatcher.lastEmail)
	require.Len(t, dispatcher.lastCode, 6)

	user, session, err := service.Register(ctx, email, dispatcher.lastCode, username, password)
	require.NoError(t, err)

	return user, session
}

func TestRegisterFlow(t *testing.T) {
	service, dispatcher, _ := setupService(t)

	ctx := context.Background()
	require.NoError(t, service.RequestCode(ctx, otp.ScopeRegister, "a@b.id"))

	user, session, err := service.Register(ctx, "a@b.id", dispatcher.lastCode, "warga", "")
	require.NoError(t, err)

	assert.True(t, user.Active)
	assert.Empty(t, user.Password, "password is optional")
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	// the registration code is single use
	_, _, err = service.Register(context.Background(), "a@b.id", dispatcher.lastCode, "warga2", "")
	require.ErrorIs(t, err, otp.ErrCodeMismatch)
}

func TestRegisterDuplicate(t *testing.T) {
	service, dispatcher, _ := setupService(t)
	ctx := context.Background()

	register(t, service, dispatcher, "a@b.id", "warga", "")

	require.NoError(t, service.RequestCode(ctx, otp.ScopeRegister, "a@b.id"))

	_, _, err := service.Register(ctx, "a@b.id", dispatcher.lastCode, "other", "")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestLoginWithCode(t *testing.T) {
	service, dispatcher, _ := setupService(t)
	ctx := context.Background()

	registered, _ := register(t, service, dispatcher, "a@b.id", "warga", "")

	require.NoError(t, service.RequestCode(ctx, otp.ScopeLogin, "a@b.id"))

	user, session, err := service.LoginWithCode(ctx, "a@b.id", dispatcher.lastCode)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, session.Token)

	// unknown account
	_, _, err = service.LoginWithCode(ctx, "x@y.id", "123456")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginWithPassword(t *testing.T) {
	service, dispatcher, db := setupService(t)

	user, _ := register(t, service, dispatcher, "a@b.id", "warga", "s3cret-pass")

	_, session, err := service.LoginWithPassword("a@b.id", "s3cret-pass", "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, _, err = service.LoginWithPassword("a@b.id", "wrong", "")
	require.ErrorIs(t, err, ErrInvalidPassword)

	// disabled accounts cannot log in
	require.NoError(t, db.Model(user).Update("active", false).Error)

	_, _, err = service.LoginWithPassword("a@b.id", "s3cret-pass", "")
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestLoginRequiresTOTPWhenEnrolled(t *testing.T) {
	service, dispatcher, _ := setupService(t)

	user, _ := register(t, service, dispatcher, "a@b.id", "warga", "s3cret-pass")

	url, err := service.EnrollTOTP(user.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "otpauth://")

	_, _, err = service.LoginWithPassword("a@b.id", "s3cret-pass", "")
	require.ErrorIs(t, err, ErrTOTPRequired)

	_, _, err = service.LoginWithPassword("a@b.id", "s3cret-pass", "000000")
	require.ErrorIs(t, err, ErrInvalidTOTP)
}

func TestSessions(t *testing.T) {
	service, dispatcher, db := setupService(t)

	user, session := register(t, service, dispatcher, "a@b.id", "warga", "")

	resolved, err := service.UserFromToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	_, err = service.UserFromToken("bogus")
	require.ErrorIs(t, err, ErrInvalidSession)

	// expired sessions are rejected and purged
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Session{}).
		Where("token = ?", session.Token).
		Update("expires_at", expired).Error)

	_, err = service.UserFromToken(session.Token)
	require.ErrorIs(t, err, ErrInvalidSession)

	count, err := service.PurgeExpiredSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestLogout(t *testing.T) {
	service, dispatcher, _ := setupService(t)

	_, session := register(t, service, dispatcher, "a@b.id", "warga", "")

	require.NoError(t, service.Logout(session.Token))

	_, err := service.UserFromToken(session.Token)
	require.ErrorIs(t, err, ErrInvalidSession)

	// logout is idempotent
	require.NoError(t, service.Logout(session.Token))
}
