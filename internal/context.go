package internal

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Context provides request access and the response builder for one
// dispatch. It also implements context.Context by delegating to the
// underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the response builder for this dispatch.
	Response() *Response

	// Writer returns the raw http.ResponseWriter for handlers that need
	// to bypass the response builder, such as streaming or protocol
	// upgrades. Call Response().Passthrough first so finalization does
	// not write a second response.
	Writer() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Method returns the request method.
	Method() string

	// Path returns the decoded request path.
	Path() string

	// Param returns the URL parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Param(name string) string

	// Params returns all extracted URL parameters.
	Params() Params

	// Query returns the query parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header on the builder.
	SetHeader(name, value string)

	// JSON sends a JSON response with the given status code.
	JSON(code int, v any) error

	// String sends a plain text response with the given status code.
	String(code int, s string) error

	// HTML sends an HTML response with the given status code.
	HTML(code int, s string) error

	// NoContent sends a response with no body.
	NoContent(code int) error

	// Redirect sends a redirect to the given URL with the given status code.
	Redirect(code int, url string) error

	// Error creates and returns an HTTPError without touching the
	// response. The error should be returned from the handler to
	// trigger the error handler.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Set stores a value in the request context.
	// The value can be retrieved using Get or from c.Context().Value(key).
	Set(key any, value any)

	// Get retrieves a value from the request context.
	// Returns nil if the key is not found.
	Get(key any) any

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	// LogDebug logs a debug message with optional attributes.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs an info message with optional attributes.
	LogInfo(msg string, attrs ...any)

	// LogWarn logs a warning message with optional attributes.
	LogWarn(msg string, attrs ...any)

	// LogError logs an error message with optional attributes.
	LogError(msg string, attrs ...any)

	// Route returns the matched route, or nil for not-found handling.
	Route() *Route
}

// requestContext implements the Context interface.
//
// Set replaces the request pointer to attach a context value, and a
// timeout middleware may abandon the handler goroutine while the main
// goroutine is already in the error path, so the pointer is guarded by
// a mutex. route, params, writer, and response are assigned once before
// the chain runs and are not guarded.
type requestContext struct {
	writer   http.ResponseWriter
	request  *http.Request
	response *Response
	logger   *slog.Logger
	route    *Route
	params   Params
	mu       sync.RWMutex
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	return &requestContext{
		writer:   w,
		request:  r,
		response: NewResponse(),
		logger:   app.logger,
	}
}

// req returns the current request snapshot under the read lock.
func (c *requestContext) req() *http.Request {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.request
}

func (c *requestContext) Request() *http.Request {
	return c.req()
}

func (c *requestContext) Response() *Response {
	return c.response
}

func (c *requestContext) Writer() http.ResponseWriter {
	return c.writer
}

func (c *requestContext) Context() context.Context {
	return c.req().Context()
}

func (c *requestContext) Method() string {
	return c.req().Method
}

func (c *requestContext) Path() string {
	return c.req().URL.Path
}

func (c *requestContext) Param(name string) string {
	return c.params.Get(name)
}

func (c *requestContext) Params() Params {
	return c.params
}

func (c *requestContext) Query(name string) string {
	return c.req().URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	v := c.req().URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}

func (c *requestContext) Header(name string) string {
	return c.req().Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	return c.response.Status(code).JSON(v)
}

func (c *requestContext) String(code int, s string) error {
	return c.response.Status(code).Text(s)
}

func (c *requestContext) HTML(code int, s string) error {
	return c.response.Status(code).HTML(s)
}

func (c *requestContext) NoContent(code int) error {
	return c.response.Status(code).End()
}

func (c *requestContext) Redirect(code int, url string) error {
	return c.response.Redirect(url, code)
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	err := NewHTTPError(code, message)
	for _, opt := range opts {
		opt(err)
	}
	return err
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.req().Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.req().Context().Done()
}

func (c *requestContext) Err() error {
	return c.req().Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.req().Context().Value(key)
}

func (c *requestContext) Set(key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.req().Context().Value(key)
}

func (c *requestContext) Logger() *slog.Logger {
	return c.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.Context(), msg, attrs...)
}

func (c *requestContext) Route() *Route {
	return c.route
}
