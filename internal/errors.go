package internal

import (
	"errors"
	"net/http"
)

// Sentinel errors for the dispatch core. Wrapped with context via %w,
// check with errors.Is.
var (
	// ErrAlreadySent is returned when a response is mutated after a
	// terminal mutator has run. The message is part of the public
	// contract; external packages match on it.
	ErrAlreadySent = errors.New("response already sent")

	// ErrRouteNotFound is returned by the route table when no route
	// matches the method and path. A method mismatch on an otherwise
	// matching path is indistinguishable from no match at all.
	ErrRouteNotFound = errors.New("route not found")

	// ErrDuplicatePlugin is returned when a plugin name is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrMissingDependency is returned when a plugin declares a dependency
	// that has not been registered yet. Dependencies resolve against
	// already-registered plugins only; registration order matters.
	ErrMissingDependency = errors.New("missing plugin dependency")

	// ErrLifecycleHook wraps errors thrown from start/stop lifecycle hooks.
	// A hook error aborts the remaining lifecycle sequence.
	ErrLifecycleHook = errors.New("plugin lifecycle hook failed")
)

// HTTPError represents an HTTP error with the data needed for rendering.
// It implements the error interface and carries structured data for
// error handlers to serialize into a response.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to clients).
	Err error

	// Message is the client-facing error message.
	Message string

	// ErrorCode is an application-specific error code.
	ErrorCode string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}
