package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayhttp/relay/internal"
	"github.com/relayhttp/relay/pkg/health"
)

func doRequest(app *internal.App, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestAppDispatch(t *testing.T) {
	t.Parallel()

	t.Run("routes with parameters", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/users/:id", func(c internal.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
		})

		rec := doRequest(app, http.MethodGet, "/users/42")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"id":"42"}`, rec.Body.String())
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("wildcard captures the remainder", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/static/*", func(c internal.Context) error {
			return c.String(http.StatusOK, c.Param("*"))
		})

		rec := doRequest(app, http.MethodGet, "/static/css/site.css")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "css/site.css", rec.Body.String())
	})

	t.Run("encoded slash stays inside its segment", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/files/:name", func(c internal.Context) error {
			return c.String(http.StatusOK, c.Param("name"))
		})
		app.Router().GET("/files/:dir/:name", func(c internal.Context) error {
			return c.String(http.StatusOK, "two segments")
		})

		rec := doRequest(app, http.MethodGet, "/files/a%2Fb")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "a/b", rec.Body.String())
	})

	t.Run("default not found", func(t *testing.T) {
		t.Parallel()
		app := internal.New()

		rec := doRequest(app, http.MethodGet, "/missing")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Not Found", rec.Body.String())
	})

	t.Run("method mismatch is not found", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/users", func(c internal.Context) error {
			return c.String(http.StatusOK, "ok")
		})

		rec := doRequest(app, http.MethodPost, "/users")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("custom not found handler", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithNotFoundHandler(func(c internal.Context) error {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no such page"})
		}))

		rec := doRequest(app, http.MethodGet, "/missing")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"no such page"}`, rec.Body.String())
	})

	t.Run("implicit finalize keeps accumulated headers", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/touch", func(c internal.Context) error {
			c.SetHeader("X-Touched", "yes")
			return nil
		})

		rec := doRequest(app, http.MethodGet, "/touch")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Body.String())
		require.Equal(t, "yes", rec.Header().Get("X-Touched"))
	})

	t.Run("no content", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().DELETE("/users/:id", func(c internal.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		rec := doRequest(app, http.MethodDelete, "/users/7")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())
	})

	t.Run("mounted handler writes directly", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().Mount("/debug", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("raw output"))
		}))

		rec := doRequest(app, http.MethodGet, "/debug")
		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, "raw output", rec.Body.String())

		rec = doRequest(app, http.MethodGet, "/debug/sub/path")
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestAppErrorHandling(t *testing.T) {
	t.Parallel()

	t.Run("http error renders status message and code", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/users/:id", func(c internal.Context) error {
			return c.Error(http.StatusNotFound, "user not found", internal.WithErrorCode("USER_NOT_FOUND"))
		})

		rec := doRequest(app, http.MethodGet, "/users/42")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"user not found","code":"USER_NOT_FOUND"}`, rec.Body.String())
	})

	t.Run("opaque errors become an opaque 500", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/boom", func(c internal.Context) error {
			return errors.New("connection refused to db-primary:5432")
		})

		rec := doRequest(app, http.MethodGet, "/boom")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "Internal Server Error", rec.Body.String())
		require.NotContains(t, rec.Body.String(), "db-primary")
	})

	t.Run("wrapped http error is unwrapped", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/forbidden", func(c internal.Context) error {
			return internal.ErrForbidden("not allowed")
		})

		rec := doRequest(app, http.MethodGet, "/forbidden")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"not allowed"}`, rec.Body.String())
	})

	t.Run("custom error handler replaces the default", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithErrorHandler(func(c internal.Context, err error) error {
			return c.String(http.StatusBadGateway, "custom: "+err.Error())
		}))
		app.Router().GET("/boom", func(c internal.Context) error {
			return errors.New("upstream failed")
		})

		rec := doRequest(app, http.MethodGet, "/boom")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, "custom: upstream failed", rec.Body.String())
	})

	t.Run("error after a sent response cannot replace it", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/sent", func(c internal.Context) error {
			if err := c.String(http.StatusOK, "already out"); err != nil {
				return err
			}
			return errors.New("too late")
		})

		rec := doRequest(app, http.MethodGet, "/sent")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "already out", rec.Body.String())
	})

	t.Run("failing error handler falls back to a plain 500", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithErrorHandler(func(c internal.Context, err error) error {
			return errors.New("error handler broke too")
		}))
		app.Router().GET("/boom", func(c internal.Context) error {
			return errors.New("original failure")
		})

		rec := doRequest(app, http.MethodGet, "/boom")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "Internal Server Error", rec.Body.String())
	})
}

func TestAppMiddlewareTiers(t *testing.T) {
	t.Parallel()

	tagging := func(log *[]string, name string) internal.Middleware {
		return func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				*log = append(*log, name)
				return next(c)
			}
		}
	}

	t.Run("global scoped and route tiers in order", func(t *testing.T) {
		t.Parallel()
		var log []string
		app := internal.New(
			internal.WithMiddleware(tagging(&log, "global")),
			internal.WithScopedMiddleware("/api", tagging(&log, "scoped")),
		)
		app.Router().GET("/api/users", func(c internal.Context) error {
			log = append(log, "handler")
			return c.NoContent(http.StatusNoContent)
		}, tagging(&log, "route"))

		doRequest(app, http.MethodGet, "/api/users")
		require.Equal(t, []string{"global", "scoped", "route", "handler"}, log)
	})

	t.Run("unwind runs tiers in reverse", func(t *testing.T) {
		t.Parallel()
		var log []string
		wrapping := func(name string) internal.Middleware {
			return func(next internal.HandlerFunc) internal.HandlerFunc {
				return func(c internal.Context) error {
					log = append(log, name+"-in")
					err := next(c)
					log = append(log, name+"-out")
					return err
				}
			}
		}

		app := internal.New(
			internal.WithMiddleware(wrapping("global")),
			internal.WithScopedMiddleware("/api", wrapping("scoped")),
		)
		app.Router().GET("/api/users", func(c internal.Context) error {
			log = append(log, "handler")
			return c.NoContent(http.StatusNoContent)
		}, wrapping("route"))

		doRequest(app, http.MethodGet, "/api/users")
		require.Equal(t, []string{
			"global-in", "scoped-in", "route-in",
			"handler",
			"route-out", "scoped-out", "global-out",
		}, log)
	})

	t.Run("scoped middleware skips paths outside its prefix", func(t *testing.T) {
		t.Parallel()
		var log []string
		app := internal.New(
			internal.WithScopedMiddleware("/api", tagging(&log, "scoped")),
		)
		app.Router().GET("/public", func(c internal.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		doRequest(app, http.MethodGet, "/public")
		require.Empty(t, log)
	})

	t.Run("not found passes through global middleware", func(t *testing.T) {
		t.Parallel()
		var log []string
		app := internal.New(internal.WithMiddleware(tagging(&log, "global")))

		rec := doRequest(app, http.MethodGet, "/missing")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, []string{"global"}, log)
	})

	t.Run("middleware can rewrite the response", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithMiddleware(func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				c.Response().Header("X-Powered-By", "relay")
				return next(c)
			}
		}))
		app.Router().GET("/", func(c internal.Context) error {
			return c.String(http.StatusOK, "home")
		})

		rec := doRequest(app, http.MethodGet, "/")
		require.Equal(t, "relay", rec.Header().Get("X-Powered-By"))
	})
}

func TestAppRouteCache(t *testing.T) {
	t.Parallel()

	t.Run("repeat dispatch hits the cache", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/users/:id", func(c internal.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		doRequest(app, http.MethodGet, "/users/1")
		doRequest(app, http.MethodGet, "/users/1")
		doRequest(app, http.MethodGet, "/users/2")

		stats := app.CacheStats()
		require.Equal(t, uint64(1), stats.Hits)
		require.Equal(t, uint64(2), stats.Misses)
		require.Equal(t, 2, stats.Size)
	})

	t.Run("clear resets the counters", func(t *testing.T) {
		t.Parallel()
		app := internal.New()
		app.Router().GET("/users", func(c internal.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		doRequest(app, http.MethodGet, "/users")
		app.ClearRouteCache()

		stats := app.CacheStats()
		require.Zero(t, stats.Hits)
		require.Zero(t, stats.Misses)
		require.Zero(t, stats.Size)
	})

	t.Run("custom capacity bounds the entry count", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithRouteCacheSize(1))
		app.Router().GET("/users/:id", func(c internal.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		doRequest(app, http.MethodGet, "/users/1")
		doRequest(app, http.MethodGet, "/users/2")
		require.Equal(t, 1, app.CacheStats().Size)
	})
}

func TestAppHealthEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("liveness always reports ok", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHealthChecks())

		rec := doRequest(app, http.MethodGet, "/health/live")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("readiness reflects failing checks", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHealthChecks(
			internal.WithReadinessCheck("redis", func(ctx context.Context) error {
				return errors.New("connection refused")
			}),
		))

		rec := doRequest(app, http.MethodGet, "/health/ready")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Contains(t, rec.Body.String(), "connection refused")
	})

	t.Run("readiness passes with healthy checks", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHealthChecks(
			internal.WithReadinessPath("/ready"),
			internal.WithReadinessCheck("noop", func(ctx context.Context) error { return nil }),
		))

		rec := doRequest(app, http.MethodGet, "/ready")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), health.StatusHealthy)
	})
}

func TestAppHandlers(t *testing.T) {
	t.Parallel()

	t.Run("handlers declare routes at construction", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHandlers(greetingHandler{}))

		rec := doRequest(app, http.MethodGet, "/greet/anna")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "hello anna", rec.Body.String())
	})
}

type greetingHandler struct{}

func (greetingHandler) Routes(r internal.Router) {
	r.GET("/greet/:name", func(c internal.Context) error {
		return c.String(http.StatusOK, "hello "+c.Param("name"))
	})
}
