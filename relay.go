package relay

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/relayhttp/relay/internal"
	"github.com/relayhttp/relay/pkg/health"
	"github.com/relayhttp/relay/pkg/logger"
)

// Type aliases - public API
type (
	// App is the dispatch root: route table, match cache, middleware
	// pipeline, and plugin lifecycle behind a single http.Handler.
	App = internal.App

	// Router is the interface handlers and plugins use to declare routes.
	Router = internal.Router

	// Context provides request access and the response builder.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Response is the buffered response builder.
	Response = internal.Response

	// CookieOption configures a cookie added with Response.Cookie.
	CookieOption = internal.CookieOption

	// Params holds named URL parameters extracted during matching.
	Params = internal.Params

	// Route is a registered (method, pattern, handler) binding.
	Route = internal.Route

	// CacheStats is a snapshot of route match cache counters.
	CacheStats = internal.CacheStats

	// Plugin is a self-contained feature bundle with lifecycle hooks.
	Plugin = internal.Plugin

	// PluginMetadata describes a plugin.
	PluginMetadata = internal.PluginMetadata

	// PluginHooks are the optional lifecycle hooks of a plugin.
	PluginHooks = internal.PluginHooks

	// PluginContext is the per-plugin view handed to Register and hooks.
	PluginContext = internal.PluginContext

	// PluginStatus is the lifecycle state of a registered plugin.
	PluginStatus = internal.PluginStatus

	// HookFunc is a plugin lifecycle hook.
	HookFunc = internal.HookFunc

	// RegisterOption configures a single plugin registration.
	RegisterOption = internal.RegisterOption

	// HTTPError represents an HTTP error with rendering data.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Plugin lifecycle states.
const (
	PluginUnregistered = internal.PluginUnregistered
	PluginRegistering  = internal.PluginRegistering
	PluginRegistered   = internal.PluginRegistered
	PluginStarting     = internal.PluginStarting
	PluginStarted      = internal.PluginStarted
	PluginStopping     = internal.PluginStopping
	PluginStopped      = internal.PluginStopped
)

// Sentinel errors for checking return values.
var (
	ErrAlreadySent       = internal.ErrAlreadySent
	ErrRouteNotFound     = internal.ErrRouteNotFound
	ErrDuplicatePlugin   = internal.ErrDuplicatePlugin
	ErrMissingDependency = internal.ErrMissingDependency
	ErrLifecycleHook     = internal.ErrLifecycleHook
)

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := relay.New(
//	    relay.WithMiddleware(middlewares.Logging(log)),
//	    relay.WithHandlers(
//	        handlers.NewAuth(repo),
//	        handlers.NewPages(repo),
//	    ),
//	)
//
//	err := app.Run(":8080", relay.Logger(slog))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// NewResponse creates a pending response builder. Useful for testing
// middleware and handlers in isolation.
func NewResponse() *Response {
	return internal.NewResponse()
}

// App options

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithScopedMiddleware adds middleware scoped to a path prefix.
func WithScopedMiddleware(prefix string, mw ...Middleware) Option {
	return internal.WithScopedMiddleware(prefix, mw...)
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithPlugins registers plugins during construction.
// Registration failures panic: they are programmer errors at startup.
func WithPlugins(plugins ...*Plugin) Option {
	return internal.WithPlugins(plugins...)
}

// WithRouteCacheSize sets the route match cache capacity.
// Defaults to 1000 entries.
func WithRouteCacheSize(n int) Option {
	return internal.WithRouteCacheSize(n)
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
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets a custom error handler for handler errors.
// Called when a handler returns a non-nil error.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets a custom handler for unmatched requests.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
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
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
// Extractors pull values from context (e.g., request_id).
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
// Use this when you need complete control over logging configuration.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// Plugin registration options

// WithPluginPrefix mounts everything a plugin registers under the
// given path prefix.
func WithPluginPrefix(prefix string) RegisterOption {
	return internal.WithPluginPrefix(prefix)
}

// Health check options

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Logger sets the runtime logger.
// If nil, logging is disabled.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
// This applies to both the HTTP server and shutdown hooks.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run during server startup.
// Hooks are called in the order they were registered, after the port is
// bound but before serving requests. If any hook fails, the server stops
// and returns the error.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function to run during shutdown.
// Hooks are called in the order they were registered.
// Each hook receives a context with the shutdown timeout.
//
// Example:
//
//	relay.ShutdownHook(redis.Shutdown(client))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
// Useful for testing or when integrating with existing context hierarchies.
// Defaults to context.Background() if not set.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// HTTP errors

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// WithErrorCode sets an application-specific error code.
func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

// WithError attaches the underlying error for logging.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// ErrBadRequest creates a 400 HTTPError.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrUnauthorized creates a 401 HTTPError.
func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

// ErrForbidden creates a 403 HTTPError.
func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

// ErrNotFound creates a 404 HTTPError.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrInternal creates a 500 HTTPError.
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// Cookie options

// CookieMaxAge sets the cookie Max-Age in seconds.
func CookieMaxAge(seconds int) CookieOption {
	return internal.CookieMaxAge(seconds)
}

// CookiePath sets the cookie path. Defaults to "/".
func CookiePath(path string) CookieOption {
	return internal.CookiePath(path)
}

// CookieDomain sets the cookie domain.
func CookieDomain(domain string) CookieOption {
	return internal.CookieDomain(domain)
}

// CookieSecure sets the Secure flag.
func CookieSecure(secure bool) CookieOption {
	return internal.CookieSecure(secure)
}

// CookieHTTPOnly sets the HttpOnly flag.
func CookieHTTPOnly(httpOnly bool) CookieOption {
	return internal.CookieHTTPOnly(httpOnly)
}

// CookieSameSite sets the SameSite attribute.
func CookieSameSite(ss http.SameSite) CookieOption {
	return internal.CookieSameSite(ss)
}

// Context helpers

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is not found or type assertion fails.
//
// Example:
//
//	type tenantKey struct{}
//
//	tenant := relay.ContextValue[string](c, tenantKey{})
//	user := relay.ContextValue[*User](c, userKey{})
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}
