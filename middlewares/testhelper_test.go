package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/relayhttp/relay/internal"
)

// newApp builds an app with the middleware under test and a single GET /
// route that replies 200 "ok".
func newApp(mw internal.Middleware, opts ...internal.Option) *internal.App {
	opts = append([]internal.Option{internal.WithMiddleware(mw)}, opts...)
	app := internal.New(opts...)
	app.Router().GET("/", func(c internal.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return app
}

func doRequest(app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

// captureError is an error handler option that records the handler error
// and replies with a bare 500, so tests can assert on the error value.
func captureError(dst *error) internal.Option {
	return internal.WithErrorHandler(func(c internal.Context, err error) error {
		*dst = err
		return c.NoContent(http.StatusInternalServerError)
	})
}
