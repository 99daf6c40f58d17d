package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/relayhttp/relay/pkg/logger"
	"github.com/relayhttp/relay/pkg/redis"
)

// Duration wraps time.Duration for YAML fields written as "30s", "5m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// Config is the application configuration. Values come from the YAML
// file first, then environment variables override field by field.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Redis  RedisConfig  `yaml:"redis"`
	Router RouterConfig `yaml:"router"`
}

// ServerConfig configures the HTTP server runtime.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures logging and the optional Sentry integration.
type LogConfig struct {
	Component         string `yaml:"component"`
	SentryDSN         string `yaml:"sentry_dsn"`
	SentryEnvironment string `yaml:"sentry_environment"`
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// RouterConfig configures the dispatch core.
type RouterConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownTimeout: Duration{30 * time.Second},
		},
		Log: LogConfig{
			Component:         "app",
			SentryEnvironment: "production",
		},
	}
}

// Load reads configuration in three layers: a .env file when present
// (via godotenv, never overriding real environment variables), the YAML
// file at path when path is non-empty, and finally environment variable
// overrides.
func Load(path string) (Config, error) {
	// Missing .env is fine; it only exists in local dev.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides config fields from environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration{d}
		}
	}
	if v := os.Getenv("LOG_COMPONENT"); v != "" {
		cfg.Log.Component = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.Log.SentryDSN = v
	}
	if v := os.Getenv("SENTRY_ENVIRONMENT"); v != "" {
		cfg.Log.SentryEnvironment = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("ROUTER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Router.CacheSize = n
		}
	}
}

// Logger builds the application logger from the log configuration,
// forwarding to Sentry when a DSN is set.
func (c Config) Logger(extractors ...logger.ContextExtractor) *slog.Logger {
	log := logger.NewWithSentry(logger.SentryConfig{
		DSN:         c.Log.SentryDSN,
		Environment: c.Log.SentryEnvironment,
	}, extractors...)
	return log.With("component", c.Log.Component)
}

// RedisClient opens the connection configured under redis.url (or the
// REDIS_URL override). Returns redis.ErrEmptyConnectionURL when no URL
// is configured, so callers can treat Redis as optional:
//
//	client, err := cfg.RedisClient(ctx)
//	switch {
//	case errors.Is(err, redis.ErrEmptyConnectionURL):
//	    // run without the Redis-backed rate limit store
//	case err != nil:
//	    return err
//	default:
//	    opts = append(opts,
//	        relay.WithMiddleware(middlewares.RateLimit(100, time.Minute,
//	            middlewares.WithRateLimitStore(middlewares.NewRedisRateLimitStore(client, "")),
//	        )),
//	        relay.WithHealthChecks(relay.WithReadinessCheck("redis", redis.Healthcheck(client))),
//	    )
//	}
func (c Config) RedisClient(ctx context.Context, opts ...redis.Option) (goredis.UniversalClient, error) {
	return redis.Open(ctx, c.Redis.URL, opts...)
}
