package internal

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func noopHandler(Context) error { return nil }

func TestRouteTable(t *testing.T) {
	t.Parallel()

	t.Run("first registered route wins on overlap", func(t *testing.T) {
		t.Parallel()
		table := newRouteTable()
		first := table.register(http.MethodGet, "/users/:id", noopHandler)
		table.register(http.MethodGet, "/users/admin", noopHandler)

		route, params, err := table.match(http.MethodGet, "/users/admin")
		require.NoError(t, err)
		require.Same(t, first, route)
		require.Equal(t, "admin", params.Get("id"))
	})

	t.Run("no route returns ErrRouteNotFound", func(t *testing.T) {
		t.Parallel()
		table := newRouteTable()
		table.register(http.MethodGet, "/users", noopHandler)

		_, _, err := table.match(http.MethodGet, "/missing")
		require.ErrorIs(t, err, ErrRouteNotFound)
	})

	t.Run("method mismatch is a plain not-found", func(t *testing.T) {
		t.Parallel()
		table := newRouteTable()
		table.register(http.MethodGet, "/users", noopHandler)

		_, _, err := table.match(http.MethodPost, "/users")
		require.ErrorIs(t, err, ErrRouteNotFound)
	})

	t.Run("nil handler panics at registration", func(t *testing.T) {
		t.Parallel()
		table := newRouteTable()
		require.Panics(t, func() {
			table.register(http.MethodGet, "/users", nil)
		})
	})

	t.Run("invalid pattern panics at registration", func(t *testing.T) {
		t.Parallel()
		table := newRouteTable()
		require.Panics(t, func() {
			table.register(http.MethodGet, "users", noopHandler)
		})
	})
}

func TestRouterScope(t *testing.T) {
	t.Parallel()

	t.Run("groups join prefixes", func(t *testing.T) {
		t.Parallel()
		app := New()
		app.Router().Route("/api", func(r Router) {
			r.Route("/v1", func(r Router) {
				r.GET("/users/:id", noopHandler)
			})
		})

		route, params, err := app.table.match(http.MethodGet, "/api/v1/users/7")
		require.NoError(t, err)
		require.Equal(t, "/api/v1/users/:id", route.Pattern())
		require.Equal(t, "7", params.Get("id"))
	})

	t.Run("group root path collapses to the prefix", func(t *testing.T) {
		t.Parallel()
		app := New()
		app.Router().Route("/api", func(r Router) {
			r.GET("/", noopHandler)
		})

		_, _, err := app.table.match(http.MethodGet, "/api")
		require.NoError(t, err)
	})

	t.Run("use inside a group scopes to the prefix", func(t *testing.T) {
		t.Parallel()
		app := New()
		mw := func(next HandlerFunc) HandlerFunc { return next }
		app.Router().Route("/admin", func(r Router) {
			r.Use(mw)
		})

		require.Empty(t, app.pipe.global)
		require.Len(t, app.pipe.scoped, 1)
		require.Equal(t, "/admin", app.pipe.scoped[0].prefix)
	})

	t.Run("top-level use is global", func(t *testing.T) {
		t.Parallel()
		app := New()
		app.Router().Use(func(next HandlerFunc) HandlerFunc { return next })

		require.Len(t, app.pipe.global, 1)
		require.Empty(t, app.pipe.scoped)
	})

	t.Run("mount registers all verbs and the subtree", func(t *testing.T) {
		t.Parallel()
		app := New()
		app.Router().Mount("/metrics", http.NotFoundHandler())

		for _, method := range mountMethods {
			_, _, err := app.table.match(method, "/metrics")
			require.NoError(t, err, method)
			_, _, err = app.table.match(method, "/metrics/sub/path")
			require.NoError(t, err, method)
		}
	})
}
