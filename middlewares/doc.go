// Package middlewares provides HTTP middleware for relay applications.
//
// # Request ID
//
// RequestID middleware assigns a unique ID to each request for tracing
// and debugging. It checks incoming headers for existing IDs or
// generates new ones using UUID.
//
//	app := relay.New(
//	    relay.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// Use RequestIDExtractor() with WithLogger for automatic request_id in all logs:
//
//	app := relay.New(
//	    relay.WithLogger("api", middlewares.RequestIDExtractor()),
//	    relay.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// # Recover
//
// Recover middleware catches panics and converts them to typed errors.
// The PanicError can be handled by the global ErrorHandler.
//
//	app := relay.New(
//	    relay.WithMiddleware(
//	        middlewares.Recover(),
//	    ),
//	    relay.WithErrorHandler(func(c relay.Context, err error) error {
//	        if middlewares.IsPanicError(err) {
//	            return c.String(500, "Internal Server Error")
//	        }
//	        return c.String(500, err.Error())
//	    }),
//	)
//
// # Timeout
//
// Timeout middleware enforces request timeouts and returns typed
// TimeoutError. The handler goroutine continues after timeout; use
// context.Done() for early termination.
//
//	relay.WithMiddleware(
//	    middlewares.Timeout(5*time.Second),
//	)
//
// # Logging
//
// Logging middleware emits one structured line per request with method,
// path, status, and duration.
//
//	relay.WithMiddleware(
//	    middlewares.Logging(log,
//	        middlewares.WithLoggingSkipPaths("/health/live"),
//	    ),
//	)
//
// # Rate Limit
//
// RateLimit middleware rejects requests over a fixed-window limit with
// 429 and Retry-After. The default store is in-process; pass the Redis
// store to share limits across replicas:
//
//	relay.WithMiddleware(
//	    middlewares.RateLimit(100, time.Minute,
//	        middlewares.WithRateLimitStore(
//	            middlewares.NewRedisRateLimitStore(client, "api"),
//	        ),
//	    ),
//	)
//
// # Recommended Middleware Order
//
//	relay.WithMiddleware(
//	    middlewares.CORS(),       // First: handle preflight before other processing
//	    middlewares.RequestID(),  // Second: assign ID for all subsequent logging
//	    middlewares.Logging(log), // Third: log every request, including failures below
//	    middlewares.Recover(),    // Fourth: catch panics from timeout and handlers
//	    middlewares.Timeout(5*time.Second),
//	    middlewares.RateLimit(100, time.Minute),
//	)
package middlewares
