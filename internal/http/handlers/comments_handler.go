// Comment HTTP handlers.
//
//   - POST /ideas/{id}/comments   (append; Idempotency-Key supported)
//   - GET  /ideas/{id}/comments   (oldest first)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
)

// CommentRequest is the JSON payload for a comment. The content is plain
// text, stored as typed after trimming, and must be non-empty.
type CommentRequest struct {
	Content string `json:"content" example:"Love it, count me in for the first shift."`
}

// ListCommentsResponse lists an idea's comments, oldest first.
type ListCommentsResponse struct {
	Comments []domain.CommentView `json:"comments"`
}

// AddComment godoc
// @ID          addComment
// @Summary     Comment on an idea
// @Description Appends a plain-text comment by the caller. Supports idempotency via the
// @Description Idempotency-Key header (same key → same comment, Idempotency-Replayed: true).
// @Tags        Comments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "Caller user id"
// @Param       X-User-Name      header  string  false "Caller display name"
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       id               path    string  true  "Idea ID (UUID)"  format(uuid)
// @Param       body             body    handlers.CommentRequest  true  "Comment payload"
//
// @Success     201  {object}  domain.CommentView
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or oversized comment"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Idea hidden or closed to comments"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id}/comments [post]
func (h *Handlers) AddComment(c *gin.Context) {
	ctx := c.Request.Context()
	caller := middleware.CallerFrom(c)

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if id, found := h.replayedID(c, caller); found {
		prev, err := h.comments.Get(ctx, caller, id)
		if err != nil {
			failErr(c, err)
			return
		}
		c.Header(HeaderReplayed, "true")
		ok(c, http.StatusCreated, prev)
		return
	}

	cm, err := h.comments.Add(ctx, caller, c.Param("id"), req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, caller, cm.ID, http.StatusCreated)
	ok(c, http.StatusCreated, cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     List comments on an idea
// @Description Returns every comment on the idea, oldest first, with author display fields.
// @Tags        Comments
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Caller user id"
// @Param       id         path    string  true  "Idea ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Idea not visible to the caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	items, err := h.comments.List(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.CommentView{}
	}
	ok(c, http.StatusOK, ListCommentsResponse{Comments: items})
}
