// Package logging configures the process-wide slog logger used for diagnostics.
// User-facing output goes through pkg/ui instead.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls the diagnostic logger
type Options struct {
	Verbose bool
	Format  string // "text" or "json"
}

// Level returns the slog level for the options
func (o Options) Level() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// New builds a logger writing to w
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level()}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// Setup installs a stderr logger as the slog default
func Setup(opts Options) *slog.Logger {
	logger := New(os.Stderr, opts)
	slog.SetDefault(logger)
	return logger
}
