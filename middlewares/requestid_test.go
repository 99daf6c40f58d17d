package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/relayhttp/relay/internal"
	"github.com/relayhttp/relay/middlewares"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates a uuid when no header is present", func(t *testing.T) {
		t.Parallel()
		var seen string
		app := internal.New(internal.WithMiddleware(middlewares.RequestID()))
		app.Router().GET("/", func(c internal.Context) error {
			seen = middlewares.GetRequestID(c)
			return c.NoContent(http.StatusNoContent)
		})

		rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		require.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("preserves an incoming id", func(t *testing.T) {
		t.Parallel()
		app := newApp(middlewares.RequestID())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "upstream-123")

		rec := doRequest(app, req)
		require.Equal(t, "upstream-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("checks headers in priority order", func(t *testing.T) {
		t.Parallel()
		app := newApp(middlewares.RequestID())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "corr-9")

		rec := doRequest(app, req)
		require.Equal(t, "corr-9", rec.Header().Get("X-Request-ID"))
	})

	t.Run("custom generator and response header", func(t *testing.T) {
		t.Parallel()
		app := newApp(middlewares.RequestID(
			middlewares.WithRequestIDGenerator(func() string { return "fixed" }),
			middlewares.WithRequestIDResponseHeader("X-Trace-ID"),
		))

		rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, "fixed", rec.Header().Get("X-Trace-ID"))
		require.Empty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("extractor surfaces the id from context", func(t *testing.T) {
		t.Parallel()
		extractor := middlewares.RequestIDExtractor()

		var attrOK bool
		app := internal.New(internal.WithMiddleware(middlewares.RequestID(
			middlewares.WithRequestIDGenerator(func() string { return "log-me" }),
		)))
		app.Router().GET("/", func(c internal.Context) error {
			attr, ok := extractor(c.Context())
			attrOK = ok && attr.Value.String() == "log-me"
			return c.NoContent(http.StatusNoContent)
		})

		doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, attrOK)
	})
}
