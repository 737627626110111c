package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sitepulse-io/sitepulse/internal/cache"
	"github.com/sitepulse-io/sitepulse/internal/config"
	"github.com/sitepulse-io/sitepulse/internal/handlers"
	"github.com/sitepulse-io/sitepulse/internal/logging"
	"github.com/sitepulse-io/sitepulse/internal/repository"
	"github.com/sitepulse-io/sitepulse/internal/server"
	"github.com/sitepulse-io/sitepulse/internal/service"
	"github.com/sitepulse-io/sitepulse/pkg/idtoken"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	logger.Info("starting sitepulse", "port", cfg.Server.Port)
	if *configPath != "" {
		logger.Info("loaded config", "path", *configPath)
	}

	repo, cleanup, err := newRepository(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var c cache.Cache
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL, logger.Logger)
		if err != nil {
			logger.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		c = redisCache
	} else {
		logger.Info("cache disabled, queries go straight to the store")
	}

	var verifier *idtoken.Verifier
	if cfg.Auth.TrustedIssuer != "" {
		verifier = idtoken.NewVerifier(cfg.Auth.TrustedIssuer, cfg.Auth.Audience, cfg.Auth.IssuerSecret)
	}

	keys := service.NewKeyService(repo, verifier)
	analytics := service.NewAnalyticsService(repo, c, cfg.Cache.TTL)
	router := server.NewRouter(handlers.NewAuthHandler(keys), handlers.NewAnalyticsHandler(analytics), repo)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("stopped")
}

// newRepository selects the event/app store backend. Postgres gets its
// schema migrated on startup; anything else falls back to the in-memory
// store, which is only suitable for development.
func newRepository(cfg *config.Config, logger *logging.Logger) (repository.Repository, func(), error) {
	if cfg.Database.Type != "postgres" {
		logger.Info("using in-memory repository")
		return repository.NewInMemoryRepository(), func() {}, nil
	}

	if err := repository.Migrate(cfg.Database.URL); err != nil {
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	repo, err := repository.NewPostgresRepository(context.Background(), cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to postgres")
	return repo, repo.Close, nil
}
