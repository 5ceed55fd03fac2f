package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog.Logger scoped to the given component name.
func New(component string, level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, component, level)
}

// NewWithWriter is New with an explicit sink, so the TUI can redirect
// log output away from the terminal it draws on.
func NewWithWriter(w io.Writer, component string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("component", component)
}
