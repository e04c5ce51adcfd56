package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// LocalsUser is the fiber.Locals key holding the authenticated *models.User.
const LocalsUser = "currentUser"

// OptionalAuth creates Fiber middleware that resolves the Authorization
// bearer header when one is present and continues anonymously otherwise.
// Routes serving public content use it so members still get their
// member-level view.
func OptionalAuth(service *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return c.Next()
		}

		if user, err := service.UserFromToken(token); err == nil {
			c.Locals(LocalsUser, user)
		}

		return c.Next()
	}
}

// RequireAuth creates Fiber middleware that resolves the Authorization
// bearer header into an account and stores it in the request locals.
func RequireAuth(service *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "malformed authorization header",
			})
		}

		user, err := service.UserFromToken(token)
		if err != nil {
			log.Warn().Err(err).Msg("rejected bearer token")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired session",
			})
		}

		c.Locals(LocalsUser, user)

		return c.Next()
	}
}
