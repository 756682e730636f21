package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/bizdash/bizdash/internal/cache"
	"github.com/bizdash/bizdash/internal/config"
	"github.com/bizdash/bizdash/internal/repository"
)

// connectBackoff bounds start-up retries while Postgres or Redis come up.
var connectBackoff = func() retry.Backoff {
	b := retry.NewExponential(500 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	return retry.WithMaxRetries(6, b)
}

// dial calls open until it succeeds or the backoff is exhausted.
// secret is scrubbed from logged and returned errors.
func dial[T any](ctx context.Context, logger *slog.Logger, name, secret string, open func(context.Context) (T, error)) (T, error) {
	var (
		result  T
		attempt int
	)
	err := retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		attempt++
		v, err := open(ctx)
		if err != nil {
			logger.Warn("dependency not ready",
				slog.String("dependency", name),
				slog.Int("attempt", attempt),
				slog.String("error", sanitizeError(err, secret)),
			)
			return retry.RetryableError(err)
		}
		result = v
		return nil
	})
	if err != nil {
		return result, oops.Code("DEPENDENCY_UNAVAILABLE").
			With("dependency", name).
			With("attempts", attempt).
			Errorf("connect to %s: %s", name, sanitizeError(err, secret))
	}
	return result, nil
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Repository, error) {
	return dial(ctx, logger, "postgres", cfg.DatabaseURL, func(ctx context.Context) (*repository.Repository, error) {
		return repository.New(ctx, cfg.DatabaseURL)
	})
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.Cache, error) {
	return dial(ctx, logger, "redis", cfg.RedisURL, func(ctx context.Context) (*cache.Cache, error) {
		return cache.New(ctx, cfg.RedisURL)
	})
}
