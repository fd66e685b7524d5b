// Package logging builds the slog loggers used across agriblock, rendered
// through pterm.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel maps a level name to a pterm log level.
func ParseLevel(level string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "", "info":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "off", "disabled":
		return pterm.LogLevelDisabled, nil
	}
	return 0, fmt.Errorf("unknown log level '%s'", level)
}

// New returns a logger writing to w at the given level. Format is "text"
// for colored console output or "json". A nil w writes to stderr.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	logger := pterm.DefaultLogger.WithLevel(lvl).WithWriter(w)
	switch strings.ToLower(format) {
	case "", "text":
		logger = logger.WithFormatter(pterm.LogFormatterColorful)
	case "json":
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	default:
		return nil, fmt.Errorf("unknown log format '%s'", format)
	}
	return slog.New(pterm.NewSlogHandler(logger)), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)))
}
