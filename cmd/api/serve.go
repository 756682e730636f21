package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bizdash/bizdash/internal/auth"
	"github.com/bizdash/bizdash/internal/cache"
	"github.com/bizdash/bizdash/internal/config"
	"github.com/bizdash/bizdash/internal/handler"
	"github.com/bizdash/bizdash/internal/metrics"
	"github.com/bizdash/bizdash/internal/middleware"
	"github.com/bizdash/bizdash/internal/repository"
	"github.com/bizdash/bizdash/internal/server"
	"github.com/bizdash/bizdash/internal/service"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := initLogger(cfg, os.Stdout)

	if cfg.UsesDevSecret() {
		logger.Warn("using development JWT secret; set JWT_SECRET before deploying")
	}

	if cfg.AutoMigrate {
		if err := repository.MigrateUp(ctx, cfg.DatabaseURL); err != nil {
			return oops.Code("MIGRATION_FAILED").Errorf("%s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("database migrations applied")
	}

	repo, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))

	var (
		cacheClient *cache.Cache
		limiter     middleware.RateLimiter
		cacheHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err = connectRedis(ctx, cfg, logger)
		if err != nil {
			repo.Close()
			return err
		}
		limiter = cacheClient
		cacheHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set; auth rate limiting disabled")
	}

	recorder := metrics.NewPrometheus()
	hasher := auth.NewHasher(auth.HasherOptions{
		Algorithm:   cfg.PasswordHasher,
		BcryptCost:  cfg.BcryptCost,
		Concurrency: cfg.HashConcurrency,
	})
	tokens := auth.NewTokenIssuer(cfg.SigningSecret(), cfg.TokenTTL)
	authService := service.NewAuthService(repo, hasher, tokens, recorder, logger)

	router := newRouter(routerDeps{
		cfg:     cfg,
		logger:  logger,
		auth:    handler.NewAuthHandler(authService, logger),
		health:  handler.NewHealthHandler(repo, cacheHealth, logger),
		limiter: limiter,
		metrics: recorder,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"addr", srv.Addr(),
		"env", cfg.AppEnv,
		"password_hasher", hasher.Algorithm(),
		"token_ttl", cfg.TokenTTL.String(),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}
