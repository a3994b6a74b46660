// Package log configures the process-wide structured logger.
package log

import (
	"log/slog"
	"os"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup installs the default logger. Unrecognized levels fall back to info;
// any format other than "json" selects the text handler.
func Setup(logLevel, format string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// WithModule returns the default logger tagged with a module attribute.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
