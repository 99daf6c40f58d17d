package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a JSON-formatted logger with optional context extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	log := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(NewLogHandlerDecorator(log, extractors...))
}

// NewNoop creates a no-op logger that discards all output.
// Use this as a default when logging is not configured.
func NewNoop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
