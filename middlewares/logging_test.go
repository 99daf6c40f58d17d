package middlewares_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayhttp/relay/internal"
	"github.com/relayhttp/relay/middlewares"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	newLogger := func() (*slog.Logger, *bytes.Buffer) {
		var buf bytes.Buffer
		return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
	}

	t.Run("logs one line per request", func(t *testing.T) {
		t.Parallel()
		log, buf := newLogger()
		app := newApp(middlewares.Logging(log))

		rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		out := buf.String()
		require.Contains(t, out, `"msg":"request"`)
		require.Contains(t, out, `"method":"GET"`)
		require.Contains(t, out, `"path":"/"`)
		require.Contains(t, out, `"status":200`)
	})

	t.Run("handler errors log at error level and pass through", func(t *testing.T) {
		t.Parallel()
		log, buf := newLogger()
		app := internal.New(internal.WithMiddleware(middlewares.Logging(log)))
		app.Router().GET("/boom", func(c internal.Context) error {
			return internal.ErrBadRequest("invalid input")
		})

		rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		out := buf.String()
		require.Contains(t, out, `"level":"ERROR"`)
		require.Contains(t, out, `"msg":"request failed"`)
		require.Contains(t, out, "invalid input")
	})

	t.Run("skip paths are never logged", func(t *testing.T) {
		t.Parallel()
		log, buf := newLogger()
		app := internal.New(internal.WithMiddleware(
			middlewares.Logging(log, middlewares.WithLoggingSkipPaths("/health/live")),
		))
		app.Router().GET("/health/live", func(c internal.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, buf.String())
	})
}
