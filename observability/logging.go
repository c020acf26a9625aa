// Package observability provides shared logger construction.
package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a component-scoped structured logger writing JSON to
// stdout.
func NewLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// NewConsoleLogger returns a human-readable logger for interactive use.
func NewConsoleLogger(component string) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
