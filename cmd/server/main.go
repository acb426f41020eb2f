// Command server runs the ideas board HTTP API.
//
//	@title			Ideas Board API
//	@version		1.0
//	@description	Community ideas: submission, moderation, voting, comments and ranked listings.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-ideas-backend/internal/catalog"
	"github.com/tbourn/go-ideas-backend/internal/config"
	httpapi "github.com/tbourn/go-ideas-backend/internal/http"
	"github.com/tbourn/go-ideas-backend/internal/observability"
	"github.com/tbourn/go-ideas-backend/internal/repo"
	"github.com/tbourn/go-ideas-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...";
// APP_VERSION overrides it.
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	version = sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	logger := sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	logger.Info().Str("version", version).Str("driver", cfg.DBDriver).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(repo.Options{
		Driver:  cfg.DBDriver,
		Path:    cfg.DBPath,
		DSN:     cfg.DatabaseURL,
		Tracing: cfg.OTEL.Enabled,
		Quiet:   cfg.GinMode == gin.ReleaseMode,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	cat, err := catalog.Load(cfg.CategoriesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CategoriesPath).Msg("load categories")
	}
	if err := repo.SyncCategories(ctx, db, cat.All()); err != nil {
		logger.Fatal().Err(err).Msg("sync categories")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cat, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
