// Package communityapi exposes community lifecycle and membership endpoints.
package communityapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/notify"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Path is the base path of the community endpoints.
const Path = handler.RootPath + "communities"

// Service is the community handler service.
type Service struct {
	cfg         *config.Config
	communities *community.Service
	notify      *notify.Service
	validator   *validator.Validate
}

// Handler is the community handler.
var Handler = Service{}

// Init initializes the community handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.communities = deps.Communities
	s.notify = deps.Notify
	s.validator = validator.New()

	app.Post(Path, auth.RequireAuth(deps.Auth), s.Create)
	app.Get(Path+"/:slug", s.Get)
	app.Patch(Path+"/:id/slug", auth.RequireAuth(deps.Auth), s.UpdateSlug)
	app.Post(Path+"/:id/join", auth.RequireAuth(deps.Auth), s.Join)
	app.Post(Path+"/:id/members/:userID/approve", auth.RequireAuth(deps.Auth), s.Approve)
	app.Post(Path+"/:id/members/:userID/reject", auth.RequireAuth(deps.Auth), s.Reject)
	app.Delete(Path+"/:id/members/:userID", auth.RequireAuth(deps.Auth), s.Kick)
	app.Delete(Path+"/:id/membership", auth.RequireAuth(deps.Auth), s.Leave)
	app.Get(Path+"/:id/members", auth.RequireAuth(deps.Auth), s.Members)
}

type createBody struct {
	Slug    string `json:"slug" validate:"required"`
	Name    string `json:"name" validate:"required,max=100"`
	Privacy string `json:"privacy" validate:"omitempty,oneof=public private restricted"`
	Avatar  string `json:"avatar"`
	Color   string `json:"color"`
	Tagline string `json:"tagline"`
}

// Create creates a community owned by the caller.
func (s *Service) Create(c *fiber.Ctx) error {
	var body createBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	com, err := s.communities.Create(handler.CurrentUserID(c), community.CreateInput{
		Slug:    body.Slug,
		Name:    body.Name,
		Privacy: models.Privacy(body.Privacy),
		Avatar:  body.Avatar,
		Color:   body.Color,
		Tagline: body.Tagline,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	log.Info().Str("slug", com.Slug).Uint64("owner", com.OwnerID).Msg("community created")

	return c.Status(fiber.StatusCreated).JSON(com)
}

// Get loads a community by slug.
func (s *Service) Get(c *fiber.Ctx) error {
	com, err := s.communities.BySlug(c.Params("slug"))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(com)
}

type updateSlugBody struct {
	Slug string `json:"slug" validate:"required"`
}

// UpdateSlug changes the community slug, rate-limited to once per week.
func (s *Service) UpdateSlug(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	var body updateSlugBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	com, err := s.communities.UpdateSlug(communityID, handler.CurrentUserID(c), body.Slug)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(com)
}

// Join enrolls the caller: immediately for public communities, as a pending
// request otherwise. A pending request notifies the community owner.
func (s *Service) Join(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	userID := handler.CurrentUserID(c)

	membership, err := s.communities.Join(communityID, userID)
	if err != nil {
		return handler.Error(c, err)
	}

	if membership.Status == models.MembershipPending {
		if com, err := s.communities.ByID(communityID); err == nil {
			s.notifyMember(c, com.OwnerID, notify.KindMemberPending, communityID, userID)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(membership)
}

// Approve turns a pending membership into a joined one.
func (s *Service) Approve(c *fiber.Ctx) error {
	communityID, targetID, err := s.memberParams(c)
	if err != nil {
		return handler.Error(c, err)
	}

	membership, err := s.communities.Approve(communityID, handler.CurrentUserID(c), targetID)
	if err != nil {
		return handler.Error(c, err)
	}

	s.notifyMember(c, targetID, notify.KindMemberApproved, communityID, targetID)

	return c.JSON(membership)
}

// Reject removes a pending membership request.
func (s *Service) Reject(c *fiber.Ctx) error {
	communityID, targetID, err := s.memberParams(c)
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.communities.Reject(communityID, handler.CurrentUserID(c), targetID); err != nil {
		return handler.Error(c, err)
	}

	s.notifyMember(c, targetID, notify.KindMemberRejected, communityID, targetID)

	return c.JSON(fiber.Map{"status": "rejected"})
}

// Kick removes a member from the community.
func (s *Service) Kick(c *fiber.Ctx) error {
	communityID, targetID, err := s.memberParams(c)
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.communities.Kick(communityID, handler.CurrentUserID(c), targetID); err != nil {
		return handler.Error(c, err)
	}

	s.notifyMember(c, targetID, notify.KindMemberKicked, communityID, targetID)

	return c.JSON(fiber.Map{"status": "kicked"})
}

// Leave removes the caller's own membership.
func (s *Service) Leave(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.communities.Leave(communityID, handler.CurrentUserID(c)); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "left"})
}

// Members lists the community's memberships, optionally filtered by status.
func (s *Service) Members(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	status := models.MembershipStatus(c.Query("status"))

	members, err := s.communities.Members(communityID, status)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(members)
}

func (s *Service) memberParams(c *fiber.Ctx) (communityID, userID uint64, err error) {
	if communityID, err = handler.ParamID(c, "id"); err != nil {
		return 0, 0, err
	}

	if userID, err = handler.ParamID(c, "userID"); err != nil {
		return 0, 0, err
	}

	return communityID, userID, nil
}

type memberEvent struct {
	CommunityID uint64 `json:"community_id"`
	UserID      uint64 `json:"user_id"`
}

func (s *Service) notifyMember(c *fiber.Ctx, recipientID uint64, kind string, communityID, userID uint64) {
	_, err := s.notify.Notify(c.Context(), recipientID, kind, memberEvent{
		CommunityID: communityID,
		UserID:      userID,
	})
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("failed to store notification")
	}
}
