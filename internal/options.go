package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/relayhttp/relay/pkg/logger"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.pipe.use(mw...)
	}
}

// WithScopedMiddleware adds middleware scoped to a path prefix.
// It runs only for requests whose path equals the prefix or sits
// below it.
func WithScopedMiddleware(prefix string, mw ...Middleware) Option {
	return func(a *App) {
		a.pipe.useAt(prefix, mw...)
	}
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithPlugins registers plugins during construction. Registration
// failures are programmer errors at startup and panic.
//
// Example:
//
//	relay.New(
//	    relay.WithPlugins(metrics.New(), scheduler.New()),
//	)
func WithPlugins(plugins ...*Plugin) Option {
	return func(a *App) {
		a.pendingPlugins = append(a.pendingPlugins, plugins...)
	}
}

// WithRouteCacheSize sets the route match cache capacity.
// Defaults to 1000 entries.
func WithRouteCacheSize(n int) Option {
	return func(a *App) {
		a.cache = newMatchCache(n)
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	relay.New(
//	    relay.WithStaticFiles("/static", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		prefix := strings.TrimSuffix(pattern, "/")
		fileServer := http.StripPrefix(prefix, http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Block directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, prefix})
	}
}

// WithErrorHandler sets a custom error handler for handler errors.
// Called when a handler returns a non-nil error and the response is
// still pending.
//
// Example:
//
//	relay.WithErrorHandler(func(c relay.Context, err error) error {
//	    return c.JSON(http.StatusInternalServerError, map[string]string{
//	        "error": err.Error(),
//	    })
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler sets a custom handler for unmatched requests.
//
// Example:
//
//	relay.WithNotFoundHandler(func(c relay.Context) error {
//	    return c.String(http.StatusNotFound, "Page not found")
//	})
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	relay.WithHealthChecks(
//	    relay.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
// Extractors pull values from context (e.g., request_id).
//
// Example:
//
//	relay.New(
//	    relay.WithLogger("api", requestIDExtractor),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
// Use this when you need complete control over logging configuration.
//
// Example:
//
//	customLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	relay.New(
//	    relay.WithCustomLogger(customLogger),
//	)
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}
