package logging

import (
	"io"
	"log/slog"
)

// New creates a structured logger writing to w.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithStore returns a logger with store and path fields.
func WithStore(logger *slog.Logger, store, path string) *slog.Logger {
	return logger.With("store", store, "path", path)
}

// WithURL returns a logger with a url field.
func WithURL(logger *slog.Logger, url string) *slog.Logger {
	return logger.With("url", url)
}
