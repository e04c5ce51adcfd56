package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/apperr"
	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/db/models"
)

// Error writes a JSON error response with the status code matching the
// error's kind. Unkinded errors are logged and hidden behind a 500.
func Error(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindForbidden:
		status = fiber.StatusForbidden
	case apperr.KindValidation:
		status = fiber.StatusUnprocessableEntity
	case apperr.KindConflict:
		status = fiber.StatusConflict
	case apperr.KindUnknown:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// BadRequest writes a 400 JSON error for malformed request bodies.
func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// CurrentUser returns the account the auth middleware stored in the locals.
// Routes without RequireAuth return nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(auth.LocalsUser).(*models.User)
	return user
}

// CurrentUserID returns the authenticated user's ID, zero for anonymous
// requests.
func CurrentUserID(c *fiber.Ctx) uint64 {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}

	return 0
}

// ParamID parses a numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.KindValidation, "invalid "+name)
	}

	return id, nil
}
