// Package postapi exposes post endpoints: publishing, listing, pinning and
// moderation.
package postapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/post"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Path is the base path of the post endpoints.
const Path = handler.RootPath + "communities/:id/posts"

// Service is the post handler service.
type Service struct {
	cfg       *config.Config
	posts     *post.Service
	validator *validator.Validate
}

// Handler is the post handler.
var Handler = Service{}

// Init initializes the post handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.posts = deps.Posts
	s.validator = validator.New()

	app.Post(Path, auth.RequireAuth(deps.Auth), s.Create)
	app.Get(Path, auth.OptionalAuth(deps.Auth), s.List)
	app.Get(Path+"/:postID", auth.OptionalAuth(deps.Auth), s.Get)
	app.Patch(Path+"/:postID/pin", auth.RequireAuth(deps.Auth), s.Pin)
	app.Delete(Path+"/:postID", auth.RequireAuth(deps.Auth), s.Delete)
}

type createBody struct {
	Type     string   `json:"type" validate:"omitempty,oneof=thread poll qa video"`
	Title    string   `json:"title" validate:"required,max=300"`
	Body     string   `json:"body"`
	MediaURL string   `json:"media_url" validate:"omitempty,url"`
	Options  []string `json:"options" validate:"omitempty,dive,required"`
}

// Create publishes a post in the community.
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

	created, err := s.posts.Create(communityID, handler.CurrentUserID(c), post.CreateInput{
		Type:     models.PostType(body.Type),
		Title:    body.Title,
		Body:     body.Body,
		MediaURL: body.MediaURL,
		Options:  body.Options,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	log.Info().Uint64("community", communityID).Uint64("post", created.ID).Msg("post created")

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns a page of the community's posts, pinned first.
func (s *Service) List(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", post.DefaultPageSize)

	posts, total, err := s.posts.List(communityID, handler.CurrentUserID(c), page, pageSize)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"posts": posts, "total": total})
}

// Get loads a single post.
func (s *Service) Get(c *fiber.Ctx) error {
	communityID, postID, err := s.postParams(c)
	if err != nil {
		return handler.Error(c, err)
	}

	found, err := s.posts.Get(communityID, handler.CurrentUserID(c), postID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(found)
}

type pinBody struct {
	Pinned *bool `json:"pinned" validate:"required"`
}

// Pin sets or clears the pinned marker on a post.
func (s *Service) Pin(c *fiber.Ctx) error {
	communityID, postID, err := s.postParams(c)
	if err != nil {
		return handler.Error(c, err)
	}

	var body pinBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	pinned, err := s.posts.Pin(communityID, handler.CurrentUserID(c), postID, *body.Pinned)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(pinned)
}

// Delete removes a post.
func (s *Service) Delete(c *fiber.Ctx) error {
	communityID, postID, err := s.postParams(c)
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.posts.Delete(communityID, handler.CurrentUserID(c), postID); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

func (s *Service) postParams(c *fiber.Ctx) (communityID, postID uint64, err error) {
	if communityID, err = handler.ParamID(c, "id"); err != nil {
		return 0, 0, err
	}

	if postID, err = handler.ParamID(c, "postID"); err != nil {
		return 0, 0, err
	}

	return communityID, postID, nil
}
