package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/comment"
	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/navigation"
	"github.com/warga-app/warga-server/internal/notify"
	"github.com/warga-app/warga-server/internal/post"
	"github.com/warga-app/warga-server/internal/rbac"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps *Deps)
}

// Deps bundles the application services the handlers work with.
type Deps struct {
	DB          *gorm.DB
	Auth        *auth.Service
	RBAC        *rbac.Service
	Communities *community.Service
	Navigation  *navigation.Service
	Posts       *post.Service
	Comments    *comment.Service
	Notify      *notify.Service
}
