// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for create requests
// (POST /ideas, POST /ideas/:id/comments). The middleware validates the
// header, stashes the key, and asks a lookup whether the caller already
// completed the same request. On a hit the request is marked as a replay:
// the rate limiter lets it through for free and the handler returns the
// resource created the first time instead of creating another.
//
// Persistence lives behind the IdempotencyLookup function type; the
// handlers record outcomes through the services layer.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's key for a create request.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stashed by
// IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a completed request for this
// caller, scope and key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyScope names the collection a create request targets. It is the
// request path without surrounding slashes, e.g. "api/v1/ideas" or
// "api/v1/ideas/<id>/comments", so one client key may be reused across
// collections.
func IdempotencyScope(c *gin.Context) string {
	return strings.Trim(c.Request.URL.Path, "/")
}

// IdempotencyOptions configures key validation. MaxLen defaults to 200 and
// Pattern to a token-safe character set.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid record exists for
// (userID, scope, key) at now. Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error)

// IdempotencyValidator validates and stashes the Idempotency-Key header.
//
//   - No header: no-op.
//   - Malformed header: 400 bad_idempotency_key.
//   - POST from a signed-in caller with a lookup hit: replay and rate-bypass
//     flags are set.
//
// Anonymous callers are never looked up; the route's RequireUser rejects
// them anyway, and keys are only meaningful per user.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid " + HeaderIdempotencyKey,
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		caller := CallerFrom(c)
		if lookup != nil && c.Request.Method == http.MethodPost && !caller.Anonymous() {
			hit, err := lookup(c.Request.Context(), caller.UserID, IdempotencyScope(c), key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case hit:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
