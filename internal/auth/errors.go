package auth

import "github.com/warga-app/warga-server/internal/apperr"

var (
	// ErrUserNotFound is returned when no account exists for the given email.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "user not found")

	// ErrUserExists is returned when registering an email or username that is already taken.
	ErrUserExists = apperr.New(apperr.KindConflict, "user with this email or username already exists")

	// ErrUserAccountDisabled is returned when authenticating a disabled account.
	ErrUserAccountDisabled = apperr.New(apperr.KindForbidden, "user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect.
	ErrInvalidPassword = apperr.New(apperr.KindForbidden, "invalid password")

	// ErrInvalidTOTP is returned when the TOTP code does not match.
	ErrInvalidTOTP = apperr.New(apperr.KindForbidden, "invalid authenticator code")

	// ErrTOTPRequired is returned when the account has a second factor enrolled
	// but no code was supplied.
	ErrTOTPRequired = apperr.New(apperr.KindForbidden, "authenticator code required")

	// ErrInvalidSession is returned when the bearer token is unknown or expired.
	ErrInvalidSession = apperr.New(apperr.KindForbidden, "invalid or expired session")

	// ErrEmailRequired is returned when a flow is started without an email address.
	ErrEmailRequired = apperr.New(apperr.KindValidation, "email is required")

	// ErrUsernameRequired is returned when registering without a username.
	ErrUsernameRequired = apperr.New(apperr.KindValidation, "username is required")
)
