package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/errutil"
)

func fastBackoff(t *testing.T, maxRetries uint64) {
	t.Helper()
	prev := connectBackoff
	connectBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(maxRetries, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(func() { connectBackoff = prev })
}

func TestDial_RetriesUntilReady(t *testing.T) {
	fastBackoff(t, 5)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	secret := "postgres://app:s3cret@db/bizdash"

	calls := 0
	got, err := dial(context.Background(), logger, "postgres", secret, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("dial " + secret + ": connection refused")
		}
		return "conn", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "conn", got)
	assert.Equal(t, 3, calls)
	assert.Contains(t, logs.String(), `"attempt":2`)
	assert.NotContains(t, logs.String(), "s3cret")
}

func TestDial_GivesUp(t *testing.T) {
	fastBackoff(t, 2)

	secret := "redis://:s3cret@cache:6379"
	calls := 0
	_, err := dial(context.Background(), slog.New(slog.DiscardHandler), "redis", secret, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("dial " + secret + ": timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "one attempt plus two retries")
	assert.NotContains(t, err.Error(), "s3cret")
	errutil.AssertErrorCode(t, err, "DEPENDENCY_UNAVAILABLE")
}

func TestDial_StopsOnCancel(t *testing.T) {
	prev := connectBackoff
	connectBackoff = func() retry.Backoff { return retry.NewConstant(time.Hour) }
	t.Cleanup(func() { connectBackoff = prev })

	ctx, cancel := context.WithCancel(context.Background())
	_, err := dial(ctx, slog.New(slog.DiscardHandler), "postgres", "", func(context.Context) (int, error) {
		cancel()
		return 0, errors.New("refused")
	})

	require.Error(t, err)
}
