// Package notificationapi exposes the per-user notification feed.
package notificationapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/notify"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Path is the base path of the notification endpoints.
const Path = handler.RootPath + "notifications"

// Service is the notification handler service.
type Service struct {
	cfg    *config.Config
	notify *notify.Service
}

// Handler is the notification handler.
var Handler = Service{}

// Init initializes the notification handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.notify = deps.Notify

	app.Get(Path, auth.RequireAuth(deps.Auth), s.List)
	app.Post(Path+"/:notificationID/read", auth.RequireAuth(deps.Auth), s.MarkRead)
	app.Post(Path+"/read-all", auth.RequireAuth(deps.Auth), s.MarkAllRead)
}

// List returns the caller's notifications, newest first. Pass unread=true to
// filter out read ones.
func (s *Service) List(c *fiber.Ctx) error {
	notifications, err := s.notify.List(handler.CurrentUserID(c), c.QueryBool("unread"))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(notifications)
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(c *fiber.Ctx) error {
	notificationID, err := handler.ParamID(c, "notificationID")
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.notify.MarkRead(handler.CurrentUserID(c), notificationID); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "read"})
}

// MarkAllRead flags all of the caller's notifications as read.
func (s *Service) MarkAllRead(c *fiber.Ctx) error {
	count, err := s.notify.MarkAllRead(handler.CurrentUserID(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "read", "count": count})
}
