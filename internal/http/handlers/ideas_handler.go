// Idea HTTP handlers.
//
// This file exposes REST endpoints for ideas:
//   - POST   /ideas        (submit; Idempotency-Key supported)
//   - GET    /ideas        (list: filter, search, rank, paginate)
//   - GET    /ideas/{id}   (aggregate view, weak ETag)
//   - PUT    /ideas/{id}   (owner edit while pending)
//   - DELETE /ideas/{id}   (owner withdraw while pending)
package handlers

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
	"github.com/tbourn/go-ideas-backend/internal/ranking"
	"github.com/tbourn/go-ideas-backend/internal/services"
	"github.com/tbourn/go-ideas-backend/internal/utils"
)

//
// DTOs
//

// IdeaRequest is the JSON payload for submitting or editing an idea. Title
// and description are plain text stored as typed after whitespace cleanup.
// Categories hold catalog ids or names and replace the idea's whole tag set.
type IdeaRequest struct {
	Title       string   `json:"title" example:"Community composting bins"`
	Description string   `json:"description" example:"Shared bins next to each allotment, emptied weekly."`
	Categories  []string `json:"categories" example:"environment,community"`
}

func (r IdeaRequest) input() services.IdeaInput {
	return services.IdeaInput{Title: r.Title, Description: r.Description, Categories: r.Categories}
}

// ListIdeasResponse contains one page of ideas and pagination metadata.
type ListIdeasResponse struct {
	Ideas      []domain.IdeaView `json:"ideas"`
	Pagination utils.Page        `json:"pagination"`
}

//
// Helpers
//

// ownerMe selects the caller's own ideas in the owner filter.
const ownerMe = "me"

// parseStatuses splits a comma-separated status filter.
func parseStatuses(raw string) ([]domain.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []domain.Status
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		st, err := domain.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// ideaETag fingerprints the rendered view, so any change visible to the
// client (tally, comment count, owner name, tags) yields a new tag.
func ideaETag(v *domain.IdeaView) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return fmt.Sprintf(`W/"idea-%x"`, h.Sum64()), nil
}

// etagMatches reports whether an If-None-Match header lists tag or "*".
func etagMatches(header, tag string) bool {
	for _, t := range strings.Split(header, ",") {
		t = strings.TrimSpace(t)
		if t == "*" || t == tag {
			return true
		}
	}
	return false
}

//
// Handlers
//

// SubmitIdea godoc
// @ID          submitIdea
// @Summary     Submit an idea
// @Description Creates a pending idea owned by the caller. Supports idempotency via
// @Description the Idempotency-Key header (same key → same idea, Idempotency-Replayed: true).
// @Tags        Ideas
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "Caller user id"         example(user123)
// @Param       X-User-Name      header  string  false "Caller display name"    example(Ada)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.IdeaRequest  true  "Idea payload"
//
// @Success     201  {object}  domain.IdeaView
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas [post]
func (h *Handlers) SubmitIdea(c *gin.Context) {
	ctx := c.Request.Context()
	caller := middleware.CallerFrom(c)

	var req IdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if id, found := h.replayedID(c, caller); found {
		view, err := h.ideas.Get(ctx, caller, id)
		if err != nil {
			failErr(c, err)
			return
		}
		c.Header(HeaderReplayed, "true")
		ok(c, http.StatusCreated, view)
		return
	}

	view, err := h.ideas.Submit(ctx, caller, req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, caller, view.ID, http.StatusCreated)
	c.Header("Location", strings.TrimSuffix(c.Request.URL.Path, "/")+"/"+view.ID)
	ok(c, http.StatusCreated, view)
}

// ListIdeas godoc
// @ID          listIdeas
// @Summary     List ideas
// @Description Returns the ideas visible to the caller, filtered by category, free text,
// @Description status and owner, ranked by popularity (net votes, newest first on ties)
// @Description or recency, and paginated. Pending and rejected ideas are only listed
// @Description for their owner and for moderators.
// @Tags        Ideas
// @Produce     json
//
// @Param       X-User-ID   header  string  false "Caller user id"
// @Param       X-User-Role header  string  false "moderator for moderation listings"
// @Param       sort        query   string  false "Ranking policy"  Enums(popular, newest) default(popular)
// @Param       category    query   string  false "Category id or name; all for every category"
// @Param       q           query   string  false "Case-insensitive search over title and description"
// @Param       status      query   string  false "Comma-separated statuses"  example(pending,approved)
// @Param       owner       query   string  false "Owner user id, or me"
// @Param       page        query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size   query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListIdeasResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401  {object}  handlers.ErrorResponse  "owner=me without identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas [get]
func (h *Handlers) ListIdeas(c *gin.Context) {
	caller := middleware.CallerFrom(c)

	policy, err := ranking.ParsePolicy(c.Query("sort"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	owner := strings.TrimSpace(c.Query("owner"))
	if owner == ownerMe {
		if caller.Anonymous() {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "owner=me requires "+middleware.HeaderUserID)
			return
		}
		owner = caller.UserID
	}

	items, page, err := h.ideas.List(c.Request.Context(), caller, services.ListQuery{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   c.Query("q"),
		Status:   statuses,
		OwnerID:  owner,
		Sort:     policy,
		Page:     utils.AtoiDefault(c.Query("page"), 1),
		PageSize: utils.AtoiDefault(c.Query("page_size"), services.DefaultPageSize),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListIdeasResponse{Ideas: items, Pagination: page})
}

// GetIdea godoc
// @ID          getIdea
// @Summary     Get an idea
// @Description Returns the aggregate view of one idea: vote tally, comment count,
// @Description categories and owner. Supports conditional requests via ETag.
// @Tags        Ideas
// @Produce     json
//
// @Param       X-User-ID      header  string  false "Caller user id"
// @Param       If-None-Match  header  string  false "ETag from a previous response"
// @Param       id             path    string  true  "Idea ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.IdeaView
// @Success     304  "Not modified"
// @Failure     403  {object}  handlers.ErrorResponse  "Idea not visible to the caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id} [get]
func (h *Handlers) GetIdea(c *gin.Context) {
	view, err := h.ideas.Get(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	if tag, err := ideaETag(view); err == nil {
		c.Header("ETag", tag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && etagMatches(inm, tag) {
			c.Status(http.StatusNotModified)
			return
		}
	}
	ok(c, http.StatusOK, view)
}

// EditIdea godoc
// @ID          editIdea
// @Summary     Edit a pending idea
// @Description Replaces title, description and categories. Only the owner may edit,
// @Description and only while the idea is pending.
// @Tags        Ideas
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller user id"
// @Param       id         path    string  true  "Idea ID (UUID)"  format(uuid)
// @Param       body       body    handlers.IdeaRequest  true  "Idea payload"
//
// @Success     200  {object}  domain.IdeaView
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Not owner or no longer pending"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id} [put]
func (h *Handlers) EditIdea(c *gin.Context) {
	var req IdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	view, err := h.ideas.Edit(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// DeleteIdea godoc
// @ID          deleteIdea
// @Summary     Withdraw a pending idea
// @Description Deletes the idea with its tags, votes and comments. Only the owner may
// @Description delete, and only while the idea is pending.
// @Tags        Ideas
//
// @Param       X-User-ID  header  string  true  "Caller user id"
// @Param       id         path    string  true  "Idea ID (UUID)"  format(uuid)
//
// @Success     204  "Deleted"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Not owner or no longer pending"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id} [delete]
func (h *Handlers) DeleteIdea(c *gin.Context) {
	if err := h.ideas.Delete(c.Request.Context(), middleware.CallerFrom(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
