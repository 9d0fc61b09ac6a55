package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/easemail/easemail-backend/internal/api"
	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/cache"
	"github.com/easemail/easemail-backend/internal/config"
	"github.com/easemail/easemail-backend/internal/database"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/websocket"
)

const (
	shutdownTimeout      = 15 * time.Second
	limiterCleanupPeriod = 5 * time.Minute
	memoryCacheSweep     = time.Minute
	redisKeyPrefix       = "easemail:"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.SlogLevel())
	slog.SetDefault(log)
	log.Info("starting EaseMail backend server")
	cfg.LogConfig(log)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store, closeCache, err := newCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, limiterCleanupPeriod)

	client := provider.NewHTTPClient(provider.HTTPConfig{
		BaseURL: cfg.ProviderAPIURL,
		APIKey:  cfg.ProviderAPIKey,
		Timeout: cfg.ProviderTimeout,
		Logger:  log,
	})
	connector := provider.NewHostedAuth(provider.ConnectorConfig{
		BaseURL:     cfg.ProviderAPIURL,
		ClientID:    cfg.ProviderClientID,
		APIKey:      cfg.ProviderAPIKey,
		RedirectURI: cfg.ProviderRedirectURI,
	})

	e := api.NewRouter(&api.RouterConfig{
		DB:              db,
		Cache:           store,
		Provider:        client,
		Connector:       connector,
		Hub:             hub,
		Limiter:         limiter,
		Logger:          log,
		Security:        logger.NewSecurityLogger(),
		AuthJWTSecret:   cfg.AuthJWTSecret,
		CronSecret:      cfg.CronSecret,
		AllowedOrigins:  websocket.ParseOrigins(cfg.AllowedOrigins),
		Production:      cfg.IsProduction(),
		FolderCountsTTL: cfg.FolderCountsTTL,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		log.Info("http server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down server", slog.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
	cancel()

	log.Info("server stopped")
	return nil
}

// newCache builds the configured cache backend and its close func.
func newCache(cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rc, err := cache.NewRedisCacheFromURL(cfg.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	default:
		mc := cache.NewMemoryCache(memoryCacheSweep)
		return mc, func() { _ = mc.Close() }, nil
	}
}
