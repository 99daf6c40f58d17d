// Package logger builds slog loggers with per-call context attribute
// extraction and optional Sentry forwarding.
//
// New returns a JSON stdout logger. NewWithSentry additionally forwards
// warnings and errors to Sentry when a DSN is configured. NewNoop
// discards everything and serves as the default when logging is not
// configured.
//
// Context extractors pull request-scoped values (such as request IDs)
// into every log record:
//
//	log := logger.New(middlewares.RequestIDExtractor())
package logger
