// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller identity. Authentication happens upstream
// (gateway or auth proxy); the service trusts three headers it sets:
//
//	X-User-ID    stable user id; absent for anonymous readers
//	X-User-Name  display name recorded on the user's profile
//	X-User-Role  "moderator" grants moderation rights
//
// The resolved domain.Caller is stored in the Gin context and is the only
// identity handlers pass to services.
package middleware

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// Identity headers.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"

	RoleModerator = "moderator"
)

const (
	ctxKeyCaller = "caller"
	ctxKeyUserID = "userID" // read by the access logger and rate limiter
)

// Identity values are stored in varchar(64) columns (ideas.user_id,
// profiles.id, profiles.username), counted in characters.
const (
	maxUserIDRunes   = 64
	maxUserNameRunes = 64
)

// Identity builds the domain.Caller for the request from the identity
// headers. A user id that is not valid UTF-8 or longer than 64 characters
// is rejected with 400 rather than truncated, since a cut id could merge
// two users. Display names are clipped instead. Use RequireUser on routes
// that need a signed-in caller.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if !utf8.ValidString(uid) || utf8.RuneCountInString(uid) > maxUserIDRunes {
			log.Warn().
				Str("request_id", c.GetString(requestIDKey)).
				Int("user_id_bytes", len(uid)).
				Msg("identity: rejected user id")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_request",
				"message":    HeaderUserID + " must be valid UTF-8 of at most 64 characters",
			})
			return
		}
		caller := domain.Caller{
			UserID:   uid,
			Username: clipName(c.GetHeader(HeaderUserName)),
		}
		if !caller.Anonymous() {
			caller.IsModerator = hasRole(c.GetHeader(HeaderUserRole), RoleModerator)
			c.Set(ctxKeyUserID, caller.UserID)
		}
		c.Set(ctxKeyCaller, caller)
		c.Next()
	}
}

// CallerFrom returns the caller resolved by Identity, or an anonymous caller
// when the middleware did not run.
func CallerFrom(c *gin.Context) domain.Caller {
	if v, ok := c.Get(ctxKeyCaller); ok {
		if caller, ok := v.(domain.Caller); ok {
			return caller
		}
	}
	return domain.Caller{}
}

// RequireUser rejects anonymous callers with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerFrom(c).Anonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing " + HeaderUserID + " header",
			})
			return
		}
		c.Next()
	}
}

// hasRole reports whether the comma-separated role list contains want.
func hasRole(roles, want string) bool {
	for _, r := range strings.Split(roles, ",") {
		if strings.EqualFold(strings.TrimSpace(r), want) {
			return true
		}
	}
	return false
}

// clipName trims s, replaces invalid UTF-8 and keeps at most
// maxUserNameRunes characters.
func clipName(s string) string {
	s = strings.ToValidUTF8(strings.TrimSpace(s), "\uFFFD")
	if utf8.RuneCountInString(s) <= maxUserNameRunes {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxUserNameRunes]))
}
