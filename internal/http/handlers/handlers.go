// Package handlers exposes the REST endpoints of the ideas board.
//
// Handlers are transport-thin: they bind and shape input, take the caller
// from the Identity middleware, delegate to the services and translate
// results (including conditional and idempotent responses) into HTTP.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
	"github.com/tbourn/go-ideas-backend/internal/services"
	"github.com/tbourn/go-ideas-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// IdeaService submits, edits, withdraws and reads ideas.
type IdeaService interface {
	Submit(ctx context.Context, caller domain.Caller, in services.IdeaInput) (*domain.IdeaView, error)
	Edit(ctx context.Context, caller domain.Caller, id string, in services.IdeaInput) (*domain.IdeaView, error)
	Delete(ctx context.Context, caller domain.Caller, id string) error
	Get(ctx context.Context, caller domain.Caller, id string) (*domain.IdeaView, error)
	List(ctx context.Context, caller domain.Caller, q services.ListQuery) ([]domain.IdeaView, utils.Page, error)
}

// VoteService casts and reads votes.
type VoteService interface {
	Cast(ctx context.Context, caller domain.Caller, id string, value int) (*services.VoteResult, error)
	Toggle(ctx context.Context, caller domain.Caller, id string, value int) (*services.VoteResult, error)
	UserVote(ctx context.Context, caller domain.Caller, id string) (int, error)
}

// CommentService appends and lists comments.
type CommentService interface {
	Add(ctx context.Context, caller domain.Caller, id, text string) (*domain.CommentView, error)
	List(ctx context.Context, caller domain.Caller, id string) ([]domain.CommentView, error)
	Get(ctx context.Context, caller domain.Caller, commentID string) (*domain.CommentView, error)
}

// ModerationService applies status transitions.
type ModerationService interface {
	Transition(ctx context.Context, caller domain.Caller, id string, target domain.Status) (*domain.IdeaView, error)
}

// StatsService reports per-user activity.
type StatsService interface {
	UserActivity(ctx context.Context, caller domain.Caller, userID string) (*services.UserStats, error)
}

// IdempotencyStore remembers which resource a keyed create produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, scope, key string) (string, bool, error)
	Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

// CategorySource lists the category catalog.
type CategorySource interface {
	All() []domain.Category
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers. Idempotency may be nil, in
// which case Idempotency-Key headers are validated but not honored.
type Services struct {
	Ideas       IdeaService
	Votes       VoteService
	Comments    CommentService
	Moderation  ModerationService
	Stats       StatsService
	Idempotency IdempotencyStore
	Categories  CategorySource
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	ideas      IdeaService
	votes      VoteService
	comments   CommentService
	moderation ModerationService
	stats      StatsService
	idem       IdempotencyStore
	categories CategorySource
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		ideas:      s.Ideas,
		votes:      s.Votes,
		comments:   s.Comments,
		moderation: s.Moderation,
		stats:      s.Stats,
		idem:       s.Idempotency,
		categories: s.Categories,
	}
}

// HeaderReplayed marks a response served from an earlier request with the
// same Idempotency-Key.
const HeaderReplayed = "Idempotency-Replayed"

// replayedID returns the resource id recorded for this request's
// Idempotency-Key, if any. Lookup failures are logged and treated as a miss
// so the request is processed normally.
func (h *Handlers) replayedID(c *gin.Context, caller domain.Caller) (string, bool) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil || caller.Anonymous() {
		return "", false
	}
	id, found, err := h.idem.Lookup(c.Request.Context(), caller.UserID, middleware.IdempotencyScope(c), key)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		return "", false
	}
	return id, found
}

// remember records the created resource under the request's key. It is
// best effort: the resource already exists, so a failure only costs the
// client a duplicate on retry.
func (h *Handlers) remember(c *gin.Context, caller domain.Caller, resourceID string, status int) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil || caller.Anonymous() {
		return
	}
	if err := h.idem.Remember(c.Request.Context(), caller.UserID, middleware.IdempotencyScope(c), key, resourceID, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record failed")
	}
}
