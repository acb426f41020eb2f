// Moderation and reporting HTTP handlers.
//
//   - POST /ideas/{id}/status   (moderator status transition)
//   - GET  /users/{id}/stats    (per-user activity)
//   - GET  /categories          (category catalog)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
)

// StatusRequest is the JSON payload for a moderation decision.
type StatusRequest struct {
	Status string `json:"status" example:"approved" enums:"pending,approved,rejected,in_progress,completed"`
}

// ListCategoriesResponse lists the category catalog.
type ListCategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

// TransitionIdea godoc
// @ID          transitionIdea
// @Summary     Change an idea's status
// @Description Moderators move ideas along pending→approved|rejected, approved→in_progress,
// @Description in_progress→completed. Requesting the current status succeeds without change.
// @Tags        Moderation
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID    header  string  true  "Caller user id"
// @Param       X-User-Role  header  string  true  "Must include moderator"  example(moderator)
// @Param       id           path    string  true  "Idea ID (UUID)"  format(uuid)
// @Param       body         body    handlers.StatusRequest  true  "Target status"
//
// @Success     200  {object}  domain.IdeaView
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Moderator role required"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Transition not allowed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id}/status [post]
func (h *Handlers) TransitionIdea(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	target := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	view, err := h.moderation.Transition(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), target)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// UserStats godoc
// @ID          userStats
// @Summary     Get a user's activity
// @Description Ideas submitted by status, approval rate, votes cast and comments written.
// @Description Visible to the user themselves and to moderators.
// @Tags        Users
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller user id"
// @Param       id         path    string  true  "User ID"
//
// @Success     200  {object}  services.UserStats
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the user or a moderator"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/stats [get]
func (h *Handlers) UserStats(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	userID := c.Param("id")
	if userID == ownerMe {
		userID = caller.UserID
	}
	st, err := h.stats.UserActivity(c.Request.Context(), caller, userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Description Returns the category catalog with display metadata.
// @Tags        Categories
// @Produce     json
// @Success     200  {object}  handlers.ListCategoriesResponse
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	ok(c, http.StatusOK, ListCategoriesResponse{Categories: h.categories.All()})
}
