package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger on stderr; debug level in the dev environment
func New(env string) *slog.Logger {
	return NewWithWriter(os.Stderr, env)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
