package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relayhttp/relay/internal"
)

// RateLimitStore counts requests per key within a fixed window.
// Incr increments the counter for the key and returns the new count
// together with the time remaining until the window resets.
type RateLimitStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, reset time.Duration, err error)
}

// KeyFunc derives the rate limit bucket key from the request.
type KeyFunc func(c internal.Context) string

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	Store RateLimitStore
	Key   KeyFunc
}

// RateLimitOption configures RateLimitConfig.
type RateLimitOption func(*RateLimitConfig)

// WithRateLimitStore sets the counter store.
// Defaults to an in-process memory store.
func WithRateLimitStore(s RateLimitStore) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		cfg.Store = s
	}
}

// WithRateLimitKeyFunc sets the bucket key function.
// Defaults to the client IP.
func WithRateLimitKeyFunc(fn KeyFunc) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		cfg.Key = fn
	}
}

// RateLimit returns middleware that rejects requests over the limit per
// window with 429 and a Retry-After header. The rejection also surfaces
// as a *RateLimitError to outer middleware; the 429 is already sent by
// then, so the error handler only logs it. Store failures fail open:
// the request proceeds and the failure is logged.
func RateLimit(limit int64, window time.Duration, opts ...RateLimitOption) internal.Middleware {
	cfg := &RateLimitConfig{
		Store: NewMemoryRateLimitStore(),
		Key:   ClientIPKey,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			key := cfg.Key(c)
			count, reset, err := cfg.Store.Incr(c.Context(), key, window)
			if err != nil {
				c.LogWarn("rate limit store failed", "error", err)
				return next(c)
			}

			remaining := limit - count
			if remaining < 0 {
				remaining = 0
			}

			resp := c.Response()
			resp.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			resp.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > limit {
				retryAfter := int(reset.Seconds() + 0.5)
				if retryAfter < 1 {
					retryAfter = 1
				}
				resp.Header("Retry-After", strconv.Itoa(retryAfter))
				if err := resp.Status(http.StatusTooManyRequests).
					Text(http.StatusText(http.StatusTooManyRequests)); err != nil {
					return err
				}
				return &RateLimitError{RetryAfter: time.Duration(retryAfter) * time.Second}
			}

			return next(c)
		}
	}
}

// ClientIPKey is the default KeyFunc: the client IP without the port.
func ClientIPKey(c internal.Context) string {
	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}

// memoryRateLimitStore is a fixed-window counter held in process memory.
// Suitable for single-instance deployments and tests; use the Redis
// store when limits must hold across replicas.
type memoryRateLimitStore struct {
	buckets map[string]*memoryBucket
	mu      sync.Mutex
}

type memoryBucket struct {
	windowEnd time.Time
	count     int64
}

// NewMemoryRateLimitStore creates an in-process fixed-window store.
func NewMemoryRateLimitStore() RateLimitStore {
	return &memoryRateLimitStore{buckets: make(map[string]*memoryBucket)}
}

func (s *memoryRateLimitStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.After(b.windowEnd) {
		b = &memoryBucket{windowEnd: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++

	return b.count, b.windowEnd.Sub(now), nil
}

// redisRateLimitStore is a fixed-window counter backed by Redis, shared
// across replicas.
type redisRateLimitStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRateLimitStore creates a Redis-backed fixed-window store.
// Keys are stored under "<prefix>:<key>".
func NewRedisRateLimitStore(client redis.UniversalClient, prefix string) RateLimitStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &redisRateLimitStore{client: client, prefix: prefix}
}

func (s *redisRateLimitStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := s.prefix + ":" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// NX keeps the original window end when the key already exists.
	pipe.ExpireNX(ctx, redisKey, window)
	ttl := pipe.TTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	reset := ttl.Val()
	if reset < 0 {
		reset = window
	}
	return incr.Val(), reset, nil
}
