// Package httpapi wires the HTTP transport (Gin) to the services, middleware
// and route handlers of the ideas board. It centralizes cross-cutting
// concerns: tracing, correlation ids, caller identity, logging with
// redaction, panic recovery, compression, metrics, CORS, security headers,
// idempotency and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-ideas-backend/docs"
	"github.com/tbourn/go-ideas-backend/internal/catalog"
	"github.com/tbourn/go-ideas-backend/internal/config"
	"github.com/tbourn/go-ideas-backend/internal/http/handlers"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
	"github.com/tbourn/go-ideas-backend/internal/services"
)

// maxBodyBytes caps request bodies; the largest payload is an idea with a
// full description.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve the caller from the identity headers
//  4. Logger: structured access logs with redaction, tagged with the caller
//  5. Recovery: capture panics after the logger
//  6. Body size limiter
//  7. Gzip (except /metrics, which promhttp compresses itself)
//  8. Metrics
//  9. CORS and security headers, so even rejected requests carry them
//  10. Idempotency validator (before rate limiting to allow bypass on replay)
//  11. Rate limiter (per user/IP, bypass on replay, health checks exempt)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cat *catalog.Catalog, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// Dependency injection: services ← db/catalog/config
	clock := func() time.Time { return time.Now().UTC() }
	idem := &services.IdempotencyService{DB: db, TTL: cfg.IdempotencyTTL, Now: clock}
	h := handlers.New(handlers.Services{
		Ideas: &services.IdeaService{
			DB:      db,
			Catalog: cat,
			Limits: services.Limits{
				MaxTitleRunes:       cfg.MaxTitleRunes,
				MaxDescriptionRunes: cfg.MaxDescriptionRunes,
				MaxCommentRunes:     cfg.MaxCommentRunes,
			},
			Now: clock,
		},
		Votes:       &services.VoteService{DB: db, Now: clock},
		Comments:    &services.CommentService{DB: db, MaxRunes: cfg.MaxCommentRunes, Now: clock},
		Moderation:  &services.ModerationService{DB: db, Now: clock},
		Stats:       &services.StatsService{DB: db},
		Idempotency: idem,
		Categories:  cat,
	})

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(idem)))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		WithSkip(middleware.SkipPaths("/health", "/metrics"))
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(db))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/categories", h.ListCategories)

		api.GET("/ideas", h.ListIdeas)
		api.GET("/ideas/:id", h.GetIdea)
		api.GET("/ideas/:id/vote", h.GetUserVote)
		api.GET("/ideas/:id/comments", h.ListComments)
	}

	// Writes and personal reads need a signed-in caller.
	member := api.Group("", middleware.RequireUser())
	{
		member.POST("/ideas", h.SubmitIdea)
		member.PUT("/ideas/:id", h.EditIdea)
		member.DELETE("/ideas/:id", h.DeleteIdea)

		member.POST("/ideas/:id/status", h.TransitionIdea)

		member.PUT("/ideas/:id/vote", h.CastVote)
		member.POST("/ideas/:id/comments", h.AddComment)

		member.GET("/users/:id/stats", h.UserStats)
	}
}

// corsConfig allows every origin when none are configured; credentials are
// never allowed since identity travels in headers, not cookies.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "If-None-Match",
			middleware.HeaderUserID, middleware.HeaderUserName, middleware.HeaderUserRole,
			middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Location", "Retry-After", handlers.HeaderReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// idempotencyLookup adapts the idempotency service to the middleware's
// lookup hook. The service applies its own clock for expiry.
func idempotencyLookup(svc *services.IdempotencyService) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, scope, key string, _ time.Time) (bool, error) {
		_, found, err := svc.Lookup(ctx, userID, scope, key)
		return found, err
	}
}

// health reports liveness and whether the store answers a ping.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Error().Err(err).Msg("health: store unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Reads past the cap fail, which JSON binding reports as a bad request.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
