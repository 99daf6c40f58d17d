package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/relayhttp/relay/pkg/health"
	"github.com/relayhttp/relay/pkg/logger"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App is the dispatch root. It owns the route table, the match cache,
// the middleware pipeline, and the plugin manager, and drives every
// request through resolve, compose, execute, finalize.
//
// Route and middleware registration is expected to complete before
// traffic begins; the App serves concurrently after that.
type App struct {
	table           *routeTable
	cache           *matchCache
	pipe            *pipeline
	plugins         *pluginManager
	logger          *slog.Logger
	errorHandler    ErrorHandler
	notFoundHandler HandlerFunc
	healthConfig    *healthConfig
	handlers        []Handler
	pendingPlugins  []*Plugin
	staticRoutes    []staticRoute
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

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
func New(opts ...Option) *App {
	a := &App{
		table:  newRouteTable(),
		cache:  newMatchCache(DefaultRouteCacheSize),
		pipe:   newPipeline(),
		logger: logger.NewNoop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.plugins = newPluginManager(a, a.logger)
	a.setupRoutes()
	return a
}

// Router returns the top-level route declaration view.
func (a *App) Router() Router {
	return &routerScope{app: a}
}

// setupRoutes mounts static handlers, health endpoints, and the routes
// declared by registered handlers and plugins.
func (a *App) setupRoutes() {
	r := a.Router()

	for _, sr := range a.staticRoutes {
		r.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		r.GET(a.healthConfig.livenessPath, livenessHandler())
		r.GET(a.healthConfig.readinessPath, readinessHandler(a.healthConfig.checks))
	}

	for _, h := range a.handlers {
		h.Routes(r)
	}

	for _, p := range a.pendingPlugins {
		if err := a.RegisterPlugin(context.Background(), p); err != nil {
			panic("relay: " + err.Error())
		}
	}
	a.pendingPlugins = nil
}

// RegisterPlugin registers a plugin at runtime. See the plugin manager
// for the registration sequence and its failure semantics.
func (a *App) RegisterPlugin(ctx context.Context, p *Plugin, opts ...RegisterOption) error {
	return a.plugins.register(ctx, p, opts...)
}

// StartPlugins runs the start hooks of all registered plugins in
// registration order. Run calls this automatically before serving.
func (a *App) StartPlugins(ctx context.Context) error {
	return a.plugins.startAll(ctx)
}

// StopPlugins runs the stop hooks of all registered plugins in
// registration order. Run calls this automatically during shutdown.
func (a *App) StopPlugins(ctx context.Context) error {
	return a.plugins.stopAll(ctx)
}

// PluginStatus returns the lifecycle status of a plugin by name.
func (a *App) PluginStatus(name string) PluginStatus {
	return a.plugins.status(name)
}

// Service resolves a qualified "<plugin>:<service>" registry entry.
func (a *App) Service(qualified string) (any, bool) {
	return a.plugins.service(qualified)
}

// CacheStats snapshots the route match cache counters.
func (a *App) CacheStats() CacheStats {
	return a.cache.stats()
}

// ClearRouteCache drops all cached matches and resets the counters.
func (a *App) ClearRouteCache() {
	a.cache.clear()
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// ServeHTTP dispatches one request: resolve the route through the
// cache, compose the middleware chain, execute it, and finalize the
// accumulated response to the wire.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Matching sees the escaped path so encoded slashes inside a
	// segment cannot change the route shape. Parameters are decoded
	// during extraction.
	path := r.URL.EscapedPath()

	c := newContext(w, r, a)

	route, params, err := a.cache.resolve(a.table, r.Method, path)
	if err != nil {
		a.dispatchNotFound(c, path, err)
		a.finalize(c)
		return
	}

	c.route = route
	c.params = params

	h := a.pipe.compose(path, route.middlewares, route.handler)
	if err := h(c); err != nil {
		a.handleError(c, err)
	}
	a.finalize(c)
}

// dispatchNotFound runs the not-found handler through the global and
// scoped middleware tiers so logging and recovery still observe it.
func (a *App) dispatchNotFound(c *requestContext, path string, matchErr error) {
	if !errors.Is(matchErr, ErrRouteNotFound) {
		a.handleError(c, matchErr)
		return
	}

	nf := a.notFoundHandler
	if nf == nil {
		nf = defaultNotFoundHandler
	}

	h := a.pipe.compose(path, nil, nf)
	if err := h(c); err != nil {
		a.handleError(c, err)
	}
}

func defaultNotFoundHandler(c Context) error {
	return c.Response().Status(http.StatusNotFound).Text(http.StatusText(http.StatusNotFound))
}

// handleError routes a handler error through the configured error
// handler. A response already sent cannot be replaced, so the error is
// only logged.
func (a *App) handleError(c Context, err error) {
	resp := c.Response()
	if resp.Sent() {
		a.logger.ErrorContext(c.Context(), "handler error after response sent",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return
	}

	eh := a.errorHandler
	if eh == nil {
		eh = defaultErrorHandler
	}

	if ehErr := eh(c, err); ehErr != nil {
		a.logger.ErrorContext(c.Context(), "error handler failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", ehErr),
		)
		if !resp.Sent() {
			_ = resp.Status(http.StatusInternalServerError).Text("Internal Server Error")
		}
	}
}

// defaultErrorHandler maps HTTPErrors to their status and message and
// everything else to an opaque 500.
func defaultErrorHandler(c Context, err error) error {
	if httpErr := AsHTTPError(err); httpErr != nil {
		body := map[string]string{"error": httpErr.Message}
		if httpErr.ErrorCode != "" {
			body["code"] = httpErr.ErrorCode
		}
		return c.JSON(httpErr.StatusCode(), body)
	}
	return c.Response().Status(http.StatusInternalServerError).Text("Internal Server Error")
}

// finalize writes the accumulated response. A handler chain that never
// called a terminal mutator still produces a valid response: the
// accumulated headers with the accumulated status, 200 when unset.
func (a *App) finalize(c *requestContext) {
	if err := c.response.finalize(c.writer); err != nil {
		a.logger.ErrorContext(c.Context(), "finalize response",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}
}

// mountHandler adapts a plain http.Handler into the dispatch pipeline.
// The response builder switches to passthrough so finalization does not
// write a second response on top of the handler's output.
func (a *App) mountHandler(h http.Handler) HandlerFunc {
	return func(c Context) error {
		if err := c.Response().Passthrough(c.Writer()); err != nil {
			return err
		}
		h.ServeHTTP(c.Writer(), c.Request())
		return nil
	}
}

// Run starts the HTTP server and blocks until shutdown. Plugin start
// hooks run after the listener is bound and before requests are served;
// stop hooks run during graceful shutdown.
//
// Example:
//
//	app := relay.New(
//	    relay.WithHandlers(handlers.NewAPIHandler()),
//	)
//	err := app.Run(":8080", relay.Logger(slog))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)

	startupHooks := append([]func(context.Context) error{a.StartPlugins}, cfg.startupHooks...)
	shutdownHooks := append(cfg.shutdownHooks, a.StopPlugins)

	return runServer(runtimeConfig{
		handler:         a,
		address:         addr,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    startupHooks,
		shutdownHooks:   shutdownHooks,
		baseCtx:         cfg.baseCtx,
	})
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	relay.WithReadinessCheck("redis", redis.Healthcheck(client))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}

func livenessHandler() HandlerFunc {
	return func(c Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readinessHandler(checks health.Checks) HandlerFunc {
	return func(c Context) error {
		result := health.Run(c.Context(), checks)
		status := http.StatusOK
		if !result.Healthy {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, result)
	}
}
