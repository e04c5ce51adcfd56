// Package commentapi exposes comment endpoints: threaded replies, voting and
// moderation.
package commentapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/comment"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/notify"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Path is the base path of the per-post comment endpoints.
const Path = handler.RootPath + "communities/:id/posts/:postID/comments"

// VotePath is the base path of the per-comment endpoints.
const VotePath = handler.RootPath + "communities/:id/comments/:commentID"

// Service is the comment handler service.
type Service struct {
	cfg       *config.Config
	comments  *comment.Service
	notify    *notify.Service
	validator *validator.Validate
}

// Handler is the comment handler.
var Handler = Service{}

// Init initializes the comment handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.comments = deps.Comments
	s.notify = deps.Notify
	s.validator = validator.New()

	app.Post(Path, auth.RequireAuth(deps.Auth), s.Create)
	app.Get(Path, auth.OptionalAuth(deps.Auth), s.List)
	app.Post(VotePath+"/vote", auth.RequireAuth(deps.Auth), s.Vote)
	app.Delete(VotePath, auth.RequireAuth(deps.Auth), s.Delete)
}

type createBody struct {
	Body     string  `json:"body" validate:"required,max=10000"`
	ParentID *uint64 `json:"parent_id"`
}

// Create adds a comment, optionally as a reply. Replying notifies the parent
// comment's author.
func (s *Service) Create(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	postID, err := handler.ParamID(c, "postID")
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

	authorID := handler.CurrentUserID(c)

	created, err := s.comments.Create(communityID, authorID, postID, body.ParentID, body.Body)
	if err != nil {
		return handler.Error(c, err)
	}

	s.notifyReply(c, communityID, created.ParentID, authorID, created.ID)

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns the post's comments oldest first.
func (s *Service) List(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	postID, err := handler.ParamID(c, "postID")
	if err != nil {
		return handler.Error(c, err)
	}

	comments, err := s.comments.List(communityID, handler.CurrentUserID(c), postID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(comments)
}

type voteBody struct {
	Value int `json:"value" validate:"required,oneof=1 -1"`
}

// Vote records an up or down vote on a comment.
func (s *Service) Vote(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	commentID, err := handler.ParamID(c, "commentID")
	if err != nil {
		return handler.Error(c, err)
	}

	var body voteBody

	if err := c.BodyParser(&body); err != nil {
		return handler.BadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(body); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	voted, err := s.comments.Vote(communityID, handler.CurrentUserID(c), commentID, body.Value)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(voted)
}

// Delete removes a comment.
func (s *Service) Delete(c *fiber.Ctx) error {
	communityID, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	commentID, err := handler.ParamID(c, "commentID")
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.comments.Delete(communityID, handler.CurrentUserID(c), commentID); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

func (s *Service) notifyReply(c *fiber.Ctx, communityID uint64, parentID *uint64, authorID, commentID uint64) {
	if parentID == nil {
		return
	}

	parent, err := s.comments.Parent(*parentID)
	if err != nil || parent.AuthorID == authorID {
		return
	}

	_, err = s.notify.Notify(c.Context(), parent.AuthorID, notify.KindCommentReply, fiber.Map{
		"community_id": communityID,
		"comment_id":   commentID,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store notification")
	}
}
