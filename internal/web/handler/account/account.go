// Package account exposes registration, login and session endpoints.
package account

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/otp"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Path is the base path of the account endpoints.
const Path = handler.RootPath + "auth"

// Service is the account handler service.
type Service struct {
	cfg       *config.Config
	auth      *auth.Service
	validator *validator.Validate
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.auth = deps.Auth
	s.validator = validator.New()

	app.Post(Path+"/otp", s.RequestCode)
	app.Post(Path+"/register", s.Register)
	app.Post(Path+"/login", s.Login)
	app.Post(Path+"/logout", auth.RequireAuth(deps.Auth), s.Logout)
	app.Post(Path+"/totp", auth.RequireAuth(deps.Auth), s.EnrollTOTP)
	app.Get(Path+"/me", auth.RequireAuth(deps.Auth), s.Me)
}

type requestCodeBody struct {
	Email string `json:"email" validate:"required,email"`
	Scope string `json:"scope" validate:"required"`
}

// RequestCode issues a one-time code for the register or login flow.
func (s *Service) RequestCode(c *fiber.Ctx) error {
	var body requestCodeBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	if body.Scope != otp.ScopeRegister && body.Scope != otp.ScopeLogin {
		return handler.BadRequest(c, "scope must be register or login")
	}

	if err := s.auth.RequestCode(c.Context(), body.Scope, body.Email); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "code sent"})
}

type registerBody struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// Register creates an account after verifying the emailed code.
func (s *Service) Register(c *fiber.Ctx) error {
	var body registerBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	user, session, err := s.auth.Register(c.Context(), body.Email, body.Code, body.Username, body.Password)
	if err != nil {
		return handler.Error(c, err)
	}

	log.Info().Str("username", user.Username).Msg("account registered")

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(user, session))
}

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

// Login authenticates with an emailed code or a password, whichever the
// request carries.
func (s *Service) Login(c *fiber.Ctx) error {
	var body loginBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	var (
		user    *models.User
		session *models.Session
		err     error
	)

	if body.Password != "" {
		user, session, err = s.auth.LoginWithPassword(body.Email, body.Password, body.TOTPCode)
	} else if body.Code != "" {
		user, session, err = s.auth.LoginWithCode(c.Context(), body.Email, body.Code)
	} else {
		return handler.BadRequest(c, "either code or password is required")
	}

	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(sessionResponse(user, session))
}

// Logout invalidates the current session token.
func (s *Service) Logout(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)

	token := header[len("Bearer "):]
	if err := s.auth.Logout(token); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "logged out"})
}

// EnrollTOTP enables the TOTP second factor and returns the provisioning URL.
func (s *Service) EnrollTOTP(c *fiber.Ctx) error {
	url, err := s.auth.EnrollTOTP(handler.CurrentUserID(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"otpauth_url": url})
}

// Me returns the authenticated account.
func (s *Service) Me(c *fiber.Ctx) error {
	user := handler.CurrentUser(c)

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"totp":     user.TOTPSecret != "",
	})
}

func sessionResponse(user *models.User, session *models.Session) fiber.Map {
	return fiber.Map{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	}
}
