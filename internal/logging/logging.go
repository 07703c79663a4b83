// Package logging builds the zerolog logger shared by the CLI and services.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

// New creates a zerolog logger writing to w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	output := w
	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
		}
	}

	return zerolog.New(output).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
