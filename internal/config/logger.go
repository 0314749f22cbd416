package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the process logger. component names the binary
// ("api", "storefront") and is attached to every entry.
func NewLogger(cfg LoggerConfig, component string) zerolog.Logger {
	return newLogger(cfg, component, os.Stdout)
}

func newLogger(cfg LoggerConfig, component string, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", "orderdesk").
		Str("component", component).
		Logger()
}
