// Package logging builds the slog loggers of the binaries.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a configured level name to a slog level. Unknown names
// give info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Setup installs the process-wide logger. In stdio MCP mode stdout carries
// the protocol, so logs go to stderr and only when debugging; otherwise they
// go to w. The standard library logger is routed through it as well.
func Setup(w io.Writer, level string, stdio bool) *slog.Logger {
	if stdio && ParseLevel(level) != slog.LevelDebug {
		w = io.Discard
	}
	logger := New(w, level)
	slog.SetDefault(logger)
	return logger
}
