// Package logger provides structured logging setup for toolrec.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a *slog.Logger from the given level and service name.
// Output is JSON to stdout with a "service" attribute on every record.
func New(level, service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
