// Package roleapi exposes role administration endpoints: creating custom
// roles, toggling their permission flags and moving members between roles.
package roleapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/notify"
	"github.com/warga-app/warga-server/internal/perm"
	"github.com/warga-app/warga-server/internal/rbac"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Path is the base path of the role endpoints.
const Path = handler.RootPath + "communities/:id/roles"

// Service is the role handler service.
type Service struct {
	cfg       *config.Config
	rbac      *rbac.Service
	notify    *notify.Service
	validator *validator.Validate
}

// Handler is the role handler.
var Handler = Service{}

// Init initializes the role handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.rbac = deps.RBAC
	s.notify = deps.Notify
	s.validator = validator.New()

	app.Get(Path, auth.RequireAuth(deps.Auth), s.List)
	app.Post(Path, auth.RequireAuth(deps.Auth), s.Create)
	app.Patch(Path+"/flags/:flagID", auth.RequireAuth(deps.Auth), s.ToggleFlag)
	app.Put(handler.RootPath+"communities/:id/members/:userID/role",
		auth.RequireAuth(deps.Auth), s.ReassignMember)
}

// List returns the community's roles with their permission flags. Requires
// the kelola_roles permission.
func (s *Service) List(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	ok, err := s.rbac.Resolve(communityID, handler.CurrentUserID(c), perm.SlugKelolaRoles)
	if err != nil {
		return handler.Error(c, err)
	}

	if !ok {
		return handler.Error(c, rbac.ErrPermissionDenied)
	}

	roles, err := s.rbac.Roles(communityID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(roles)
}

type createBody struct {
	Name string `json:"name" validate:"required,max=100"`
	// Flags overrides catalog defaults per permission slug.
	Flags map[string]bool `json:"flags"`
}

// Create adds a custom role seeded with the full permission catalog.
func (s *Service) Create(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	var body createBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	role, err := s.rbac.CreateRole(communityID, handler.CurrentUserID(c), body.Name, body.Flags)
	if err != nil {
		return handler.Error(c, err)
	}

	log.Info().Uint64("community", communityID).Str("slug", role.Slug).Msg("role created")

	return c.Status(fiber.StatusCreated).JSON(role)
}

type toggleBody struct {
	Status *bool `json:"status" validate:"required"`
}

// ToggleFlag switches one permission flag of a role on or off.
func (s *Service) ToggleFlag(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	flagID, err := handler.ParamID(c, "flagID")
	if err != nil {
		return handler.Error(c, err)
	}

	var body toggleBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	flag, err := s.rbac.ToggleFlag(communityID, handler.CurrentUserID(c), flagID, *body.Status)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(flag)
}

type reassignBody struct {
	RoleID uint64 `json:"role_id" validate:"required"`
}

// ReassignMember moves a member to another role and notifies them.
func (s *Service) ReassignMember(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	targetID, err := handler.ParamID(c, "userID")
	if err != nil {
		return handler.Error(c, err)
	}

	var body reassignBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	membership, err := s.rbac.ReassignMemberRole(communityID, handler.CurrentUserID(c), targetID, body.RoleID)
	if err != nil {
		return handler.Error(c, err)
	}

	_, err = s.notify.Notify(c.Context(), targetID, notify.KindRoleChanged, fiber.Map{
		"community_id": communityID,
		"role_id":      body.RoleID,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store notification")
	}

	return c.JSON(membership)
}
