// Package relay provides the dispatch core of an HTTP application:
// ordered route matching with an LRU match cache, tiered middleware
// composition, a buffered single-assignment response builder, and a
// plugin lifecycle with a name-scoped service registry.
//
// # Quick Start
//
// Create a new application with relay.New(), configure it with options,
// and call Run() to start the HTTP server:
//
//	app := relay.New(
//	    relay.WithLogger("api"),
//	    relay.WithHandlers(
//	        handlers.NewAuth(repo),
//	        handlers.NewPages(repo),
//	    ),
//	)
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routing
//
// Routes are matched in registration order; the first registered route
// that fits wins. Patterns support named parameters (:name) and a
// trailing wildcard (*):
//
//	func (h *FilesHandler) Routes(r relay.Router) {
//	    r.GET("/files/:id", h.show)
//	    r.GET("/files/*", h.browse)
//	}
//
// Parameter values are percent-decoded; the wildcard remainder is bound
// under c.Param("*"). A method mismatch is a plain not-found, never 405.
//
// # Responses
//
// Handlers accumulate the response in a builder and finish it with
// exactly one terminal call. Nothing reaches the wire until the
// dispatch root finalizes the builder after the chain returns:
//
//	func (h *UsersHandler) show(c relay.Context) error {
//	    u, err := h.repo.Find(c, c.Param("id"))
//	    if err != nil {
//	        return relay.ErrNotFound("user not found")
//	    }
//	    return c.Response().
//	        Header("Cache-Control", "private").
//	        JSON(u)
//	}
//
// Mutating a sent response fails with [ErrAlreadySent].
//
// # Middleware
//
// Middleware wraps handlers to add cross-cutting concerns. Global
// middleware runs first, then path-scoped middleware (parents before
// nested scopes), then route-specific middleware:
//
//	func Logging(log *slog.Logger) relay.Middleware {
//	    return func(next relay.HandlerFunc) relay.HandlerFunc {
//	        return func(c relay.Context) error {
//	            start := time.Now()
//	            err := next(c)
//	            log.Info("request",
//	                "method", c.Method(),
//	                "path", c.Path(),
//	                "duration", time.Since(start),
//	            )
//	            return err
//	        }
//	    }
//	}
//
// # Plugins
//
// Plugins bundle routes, middleware, services, and lifecycle hooks.
// They register before the server starts and participate in ordered
// startup and shutdown:
//
//	app := relay.New(
//	    relay.WithPlugins(metrics.New(), scheduler.New()),
//	)
//
// Services registered by a plugin are shared under the qualified name
// "plugin:service" and resolved through PluginContext.GetService or
// App.Service.
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM for graceful shutdown. Plugin stop hooks
// run automatically; register extra cleanup with ShutdownHook:
//
//	err := app.Run(":8080",
//	    relay.ShutdownHook(redis.Shutdown(client)),
//	)
package relay
