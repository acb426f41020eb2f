// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware for the JSON
// API. Besides the usual browser protections it marks every response as
// varying on the identity headers: the same URL returns different ideas to
// an owner, a moderator and an anonymous reader, so a shared cache must
// never serve one caller's listing to another.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security for HTTPS requests only; enable
// it only when traffic is HTTPS end-to-end. HSTSMaxAge defaults to 180 days.
// NoStore adds Cache-Control: no-store and the legacy Pragma/Expires pair.
// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// exposedHeaders are readable by browser clients.
var exposedHeaders = []string{requestIDHeader, "ETag", "Retry-After"}

// identityHeaders select the caller, and with it the visible ideas.
var identityHeaders = []string{HeaderUserID, HeaderUserRole}

// SecurityHeaders returns the hardening middleware.
//
// Always set: X-Content-Type-Options: nosniff, X-Frame-Options: DENY,
// Referrer-Policy: no-referrer, Vary on the identity headers, and
// Access-Control-Expose-Headers for the request id, ETag and Retry-After
// (merged with any value already present).
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		for _, name := range identityHeaders {
			appendToken(h, "Vary", name)
		}
		for _, name := range exposedHeaders {
			appendToken(h, "Access-Control-Expose-Headers", name)
		}

		c.Next()
	}
}

// appendToken adds token to the comma-separated header key unless it is
// already listed (case-insensitively).
func appendToken(h http.Header, key, token string) {
	cur := h.Get(key)
	if cur == "" {
		h.Set(key, token)
		return
	}
	for _, t := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(t), token) {
			return
		}
	}
	h.Set(key, cur+", "+token)
}

// isHTTPS reports whether the request arrived over TLS, directly or via a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
