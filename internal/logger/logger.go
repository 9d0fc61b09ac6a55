// Package logger builds the application's structured loggers.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog.Logger writing to stdout at the given level.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter returns a JSON slog.Logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record. Used by tests and optional dependencies.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
