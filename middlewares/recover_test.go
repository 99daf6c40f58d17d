package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayhttp/relay/internal"
	"github.com/relayhttp/relay/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("converts a panic into a PanicError", func(t *testing.T) {
		t.Parallel()
		var captured error
		app := internal.New(
			internal.WithMiddleware(middlewares.Recover()),
			captureError(&captured),
		)
		app.Router().GET("/", func(c internal.Context) error {
			panic("something broke")
		})

		rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		pe, ok := middlewares.AsPanicError(captured)
		require.True(t, ok)
		require.Equal(t, "something broke", pe.Value)
		require.NotEmpty(t, pe.Stack)
		require.Contains(t, pe.Error(), "something broke")
	})

	t.Run("disabled stack leaves Stack nil", func(t *testing.T) {
		t.Parallel()
		var captured error
		app := internal.New(
			internal.WithMiddleware(middlewares.Recover(middlewares.WithRecoverDisablePrintStack())),
			captureError(&captured),
		)
		app.Router().GET("/", func(c internal.Context) error {
			panic("quiet")
		})

		doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))

		pe, ok := middlewares.AsPanicError(captured)
		require.True(t, ok)
		require.Nil(t, pe.Stack)
	})

	t.Run("non-panicking handlers pass through untouched", func(t *testing.T) {
		t.Parallel()
		app := newApp(middlewares.Recover())

		rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", rec.Body.String())
	})

	t.Run("handler errors are not treated as panics", func(t *testing.T) {
		t.Parallel()
		var captured error
		app := internal.New(
			internal.WithMiddleware(middlewares.Recover()),
			captureError(&captured),
		)
		app.Router().GET("/", func(c internal.Context) error {
			return internal.ErrBadRequest("invalid input")
		})

		doRequest(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.False(t, middlewares.IsPanicError(captured))
	})
}
