// Vote HTTP handlers.
//
//   - PUT /ideas/{id}/vote   (cast -1, 0 or 1; ?toggle=true retracts a repeated vote)
//   - GET /ideas/{id}/vote   (the caller's current value)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
)

// VoteRequest is the JSON payload for casting a vote. Value is required;
// 0 retracts.
type VoteRequest struct {
	Value *int `json:"value" example:"1"`
}

// UserVoteResponse is the caller's current vote on an idea.
type UserVoteResponse struct {
	IdeaID string `json:"idea_id"`
	Value  int    `json:"value" example:"-1"`
}

// CastVote godoc
// @ID          castVote
// @Summary     Vote on an idea
// @Description Stores the caller's vote (-1, 0 or 1), replacing any previous value, and
// @Description returns the idea's new tally. With toggle=true, repeating the value the
// @Description caller already holds retracts the vote.
// @Tags        Votes
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller user id"
// @Param       id         path    string  true  "Idea ID (UUID)"  format(uuid)
// @Param       toggle     query   bool    false "Retract when repeating the current value"
// @Param       body       body    handlers.VoteRequest  true  "Vote payload"
//
// @Success     200  {object}  services.VoteResult
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid vote value"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Idea hidden or closed to votes"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id}/vote [put]
func (h *Handlers) CastVote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value required")
		return
	}
	toggle, _ := strconv.ParseBool(c.DefaultQuery("toggle", "false"))

	ctx := c.Request.Context()
	caller := middleware.CallerFrom(c)
	id := c.Param("id")

	cast := h.votes.Cast
	if toggle {
		cast = h.votes.Toggle
	}
	res, err := cast(ctx, caller, id, *req.Value)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetUserVote godoc
// @ID          getUserVote
// @Summary     Get the caller's vote
// @Description Returns the caller's current vote on the idea; 0 when the caller never
// @Description voted, retracted, or is anonymous.
// @Tags        Votes
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Caller user id"
// @Param       id         path    string  true  "Idea ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.UserVoteResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Idea not visible to the caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id}/vote [get]
func (h *Handlers) GetUserVote(c *gin.Context) {
	id := c.Param("id")
	v, err := h.votes.UserVote(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserVoteResponse{IdeaID: id, Value: v})
}
