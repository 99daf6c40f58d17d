package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connection defaults. Sized for a single relay instance sharing one
// pool between the rate limit store and readiness checks; override per
// deployment with options.
const (
	defaultPoolSize      = 10
	defaultMinIdleConns  = 5
	defaultConnIdleTime  = 10 * time.Minute
	defaultConnLifetime  = 30 * time.Minute
	defaultDialAttempts  = 3
	defaultRetryBackoff  = 5 * time.Second
	defaultIOTimeout     = 3 * time.Second
	defaultDialTimeout   = 5 * time.Second
)

type config struct {
	poolSize     int
	minIdleConns int
	connIdleTime time.Duration
	connLifetime time.Duration
	dialAttempts int
	retryBackoff time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	dialTimeout  time.Duration
}

// Option overrides a connection default.
type Option func(*config)

// WithPoolSize caps the connection pool.
func WithPoolSize(n int) Option {
	return func(c *config) { c.poolSize = n }
}

// WithMinIdleConns keeps at least n idle connections warm.
func WithMinIdleConns(n int) Option {
	return func(c *config) { c.minIdleConns = n }
}

// WithMaxIdleTime closes connections idle longer than d.
func WithMaxIdleTime(d time.Duration) Option {
	return func(c *config) { c.connIdleTime = d }
}

// WithMaxActiveTime recycles connections older than d.
func WithMaxActiveTime(d time.Duration) Option {
	return func(c *config) { c.connLifetime = d }
}

// WithRetry sets how many dial attempts Open makes and the base backoff
// between them. Backoff grows linearly with the attempt number.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *config) {
		c.dialAttempts = attempts
		c.retryBackoff = backoff
	}
}

// WithReadTimeout bounds individual read operations.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) { c.readTimeout = d }
}

// WithWriteTimeout bounds individual write operations.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) { c.writeTimeout = d }
}

// WithDialTimeout bounds the TCP/TLS handshake of new connections.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) { c.dialTimeout = d }
}

// Open connects to the Redis instance named by url (redis:// or
// rediss:// for TLS) and verifies the connection with a ping before
// returning it. Transient dial failures are retried with linear
// backoff; the context bounds the whole attempt sequence.
//
// The returned client feeds middlewares.NewRedisRateLimitStore,
// Healthcheck readiness probes, and a Shutdown hook:
//
//	client, err := redis.Open(ctx, cfg.Redis.URL)
//	if err != nil {
//	    return err
//	}
//	app := relay.New(
//	    relay.WithMiddleware(middlewares.RateLimit(100, time.Minute,
//	        middlewares.WithRateLimitStore(middlewares.NewRedisRateLimitStore(client, "")),
//	    )),
//	    relay.WithHealthChecks(
//	        relay.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	    ),
//	)
//	err = app.Run(cfg.Server.Address, relay.ShutdownHook(redis.Shutdown(client)))
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	cfg := &config{
		poolSize:     defaultPoolSize,
		minIdleConns: defaultMinIdleConns,
		connIdleTime: defaultConnIdleTime,
		connLifetime: defaultConnLifetime,
		dialAttempts: defaultDialAttempts,
		retryBackoff: defaultRetryBackoff,
		readTimeout:  defaultIOTimeout,
		writeTimeout: defaultIOTimeout,
		dialTimeout:  defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	redisOpts.PoolSize = cfg.poolSize
	redisOpts.MinIdleConns = cfg.minIdleConns
	redisOpts.ConnMaxIdleTime = cfg.connIdleTime
	redisOpts.ConnMaxLifetime = cfg.connLifetime
	redisOpts.ReadTimeout = cfg.readTimeout
	redisOpts.WriteTimeout = cfg.writeTimeout
	redisOpts.DialTimeout = cfg.dialTimeout

	return dial(ctx, redisOpts, cfg.dialAttempts, cfg.retryBackoff)
}

// MustOpen is Open for wiring code where a missing Redis is fatal at
// startup. It panics instead of returning the error.
func MustOpen(ctx context.Context, url string, opts ...Option) redis.UniversalClient {
	client, err := Open(ctx, url, opts...)
	if err != nil {
		panic("redis: " + err.Error())
	}
	return client
}

// dial pings until a client answers or the attempts run out. The last
// ping error is joined into the result so callers see why the final
// attempt failed, not just that it did.
func dial(ctx context.Context, opts *redis.Options, attempts int, backoff time.Duration) (redis.UniversalClient, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(opts)

		lastErr = client.Ping(ctx).Err()
		if lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}

	return nil, errors.Join(ErrConnectionFailed, lastErr)
}
