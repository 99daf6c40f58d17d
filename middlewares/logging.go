package middlewares

import (
	"log/slog"
	"time"

	"github.com/relayhttp/relay/internal"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// SkipPaths lists exact paths that are never logged, such as
	// health probes hammering the server.
	SkipPaths []string
}

// LoggingOption configures LoggingConfig.
type LoggingOption func(*LoggingConfig)

// WithLoggingSkipPaths sets paths excluded from request logging.
func WithLoggingSkipPaths(paths ...string) LoggingOption {
	return func(cfg *LoggingConfig) {
		cfg.SkipPaths = paths
	}
}

// Logging returns middleware that logs one line per request with the
// method, path, accumulated status, and duration. Errors returned by
// the chain are logged at error level and passed through unchanged.
func Logging(log *slog.Logger, opts ...LoggingOption) internal.Middleware {
	cfg := &LoggingConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if _, ok := skip[c.Path()]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			attrs := []any{
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Int("status", c.Response().StatusCode()),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
				log.ErrorContext(c.Context(), "request failed", attrs...)
				return err
			}

			log.InfoContext(c.Context(), "request", attrs...)
			return nil
		}
	}
}
