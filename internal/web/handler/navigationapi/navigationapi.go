// Package navigationapi exposes the per-member management sidebar projection
// and the page access check backing deep links.
package navigationapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/navigation"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Path is the base path of the navigation endpoints.
const Path = handler.RootPath + "communities/:id/navigation"

// Service is the navigation handler service.
type Service struct {
	cfg        *config.Config
	navigation *navigation.Service
}

// Handler is the navigation handler.
var Handler = Service{}

// Init initializes the navigation handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.navigation = deps.Navigation

	app.Get(Path, auth.RequireAuth(deps.Auth), s.Entries)
	app.Get(Path+"/access", auth.RequireAuth(deps.Auth), s.Access)
}

// Entries returns the management sidebar entries visible to the caller. A
// member without management permissions gets an empty list, not an error.
func (s *Service) Entries(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	entries, err := s.navigation.Project(communityID, handler.CurrentUserID(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(entries)
}

// Access reports whether the caller may open the management page named by the
// page query parameter. Unknown pages report false.
func (s *Service) Access(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	page := c.Query("page")
	if page == "" {
		return handler.BadRequest(c, "page query parameter is required")
	}

	allowed, err := s.navigation.CheckPageAccess(communityID, handler.CurrentUserID(c), page)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"page": page, "allowed": allowed})
}
