package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relayhttp/relay/pkg/redis"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Open(context.Background(), "")
		require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Open(context.Background(), "http://localhost:6379")
		require.ErrorIs(t, err, redis.ErrFailedToParseURL)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Open(context.Background(), "redis://localhost:6379/not-a-db")
		require.ErrorIs(t, err, redis.ErrFailedToParseURL)
	})

	t.Run("unreachable server fails after retries", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		// Port 1 is reserved and refuses connections immediately.
		_, err := redis.Open(ctx, "redis://127.0.0.1:1/0",
			redis.WithRetry(2, 10*time.Millisecond),
			redis.WithDialTimeout(50*time.Millisecond),
		)
		require.ErrorIs(t, err, redis.ErrConnectionFailed)
	})
}
