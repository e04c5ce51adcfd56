package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/otp"
	"github.com/warga-app/warga-server/internal/uniuri"
)

// DefaultSessionTTL is used when no session expiry is configured.
const DefaultSessionTTL = 72 * time.Hour

// sessionTokenLen is the length of bearer session tokens.
const sessionTokenLen = 48

// digits is the character set for emailed verification codes.
var digits = []byte("0123456789")

// Dispatcher delivers a verification code to the user. Actual email/SMS
// delivery lives outside this service; the daemon wires a real sender or the
// logging stand-in.
type Dispatcher interface {
	Send(ctx context.Context, email, code string) error
}

// LogDispatcher logs codes instead of delivering them. Used in dev mode and
// in tests.
type LogDispatcher struct{}

// Send implements Dispatcher.
func (LogDispatcher) Send(_ context.Context, email, code string) error {
	log.Info().Str("email", email).Str("code", code).Msg("verification code issued")
	return nil
}

// Service provides account, OTP and session management.
type Service struct {
	db         *gorm.DB
	codes      *otp.Store
	dispatcher Dispatcher
	codeLength int
	sessionTTL time.Duration
	issuer     string
}

// Options configures a Service.
type Options struct {
	Codes      *otp.Store
	Dispatcher Dispatcher
	CodeLength int           // default 6
	SessionTTL time.Duration // default DefaultSessionTTL
	Issuer     string        // TOTP issuer shown in authenticator apps
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, opts Options) *Service {
	if opts.CodeLength <= 0 {
		opts.CodeLength = 6
	}

	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}

	if opts.Dispatcher == nil {
		opts.Dispatcher = LogDispatcher{}
	}

	if opts.Issuer == "" {
		opts.Issuer = "warga"
	}

	return &Service{
		db:         db,
		codes:      opts.Codes,
		dispatcher: opts.Dispatcher,
		codeLength: opts.CodeLength,
		sessionTTL: opts.SessionTTL,
		issuer:     opts.Issuer,
	}
}

// RequestCode issues a verification code for the given flow scope and hands
// it to the dispatcher. A second request within the TTL replaces the first
// code.
func (s *Service) RequestCode(ctx context.Context, scope, email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	code := uniuri.NewLenChars(s.codeLength, digits)

	if err := s.codes.Put(ctx, scope, email, code); err != nil {
		return err
	}

	if err := s.dispatcher.Send(ctx, email, code); err != nil {
		// the code stays valid; the user can request a resend
		log.Error().Err(err).Str("email", email).Msg("failed to dispatch verification code")
	}

	return nil
}

// Register creates an account after consuming the registration code and
// returns a fresh session. Password is optional; when set it enables
// password login next to OTP login.
func (s *Service) Register(ctx context.Context, email, code, username, password string) (*models.User, *models.Session, error) {
	if email == "" {
		return nil, nil, ErrEmailRequired
	}

	if username == "" {
		return nil, nil, ErrUsernameRequired
	}

	if err := s.codes.Consume(ctx, otp.ScopeRegister, email, code); err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Active:   true,
		Username: username,
		Email:    email,
	}

	if password != "" {
		user.Password = models.HashPassword(password)
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrUserExists
		}

		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// LoginWithCode logs a user in by consuming an emailed login code.
func (s *Service) LoginWithCode(ctx context.Context, email, code string) (*models.User, *models.Session, error) {
	user, err := s.userByEmail(email)
	if err != nil {
		return nil, nil, err
	}

	if !user.Active {
		return nil, nil, ErrUserAccountDisabled
	}

	if err := s.codes.Consume(ctx, otp.ScopeLogin, email, code); err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// LoginWithPassword logs a user in with their password, plus the TOTP code
// when a second factor is enrolled.
func (s *Service) LoginWithPassword(email, password, totpCode string) (*models.User, *models.Session, error) {
	user, err := s.userByEmail(email)
	if err != nil {
		return nil, nil, err
	}

	if !user.Active {
		return nil, nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, nil, ErrInvalidPassword
	}

	if user.TOTPSecret != "" {
		if totpCode == "" {
			return nil, nil, ErrTOTPRequired
		}

		if !totp.Validate(totpCode, user.TOTPSecret) {
			return nil, nil, ErrInvalidTOTP
		}
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// EnrollTOTP generates and stores a TOTP secret for the user and returns the
// otpauth:// provisioning URL for authenticator apps.
func (s *Service) EnrollTOTP(userID uint64) (string, error) {
	var user models.User

	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}

		return "", fmt.Errorf("failed to load user: %w", err)
	}

	totpKey, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}

	err = s.db.Model(&user).Update("totp_secret", totpKey.Secret()).Error
	if err != nil {
		return "", fmt.Errorf("failed to store totp secret: %w", err)
	}

	return totpKey.URL(), nil
}

// UserFromToken resolves a bearer token to its account. Unknown or expired
// tokens return ErrInvalidSession.
func (s *Service) UserFromToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	var session models.Session

	err := s.db.Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}

		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var user models.User

	if err := s.db.First(&user, session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return &user, nil
}

// Logout invalidates the session token (idempotent).
func (s *Service) Logout(token string) error {
	if err := s.db.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// PurgeExpiredSessions removes expired session rows and returns how many
// were deleted. Called periodically by the daemon.
func (s *Service) PurgeExpiredSessions() (int64, error) {
	res := s.db.Where("expires_at <= ?", time.Now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", res.Error)
	}

	return res.RowsAffected, nil
}

func (s *Service) createSession(userID uint64) (*models.Session, error) {
	session := &models.Session{
		Token:     uniuri.NewLen(sessionTokenLen),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}

	if err := s.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (s *Service) userByEmail(email string) (*models.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}

	var user models.User

	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &user, nil
}
