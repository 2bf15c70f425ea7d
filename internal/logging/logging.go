// Package logging constructs the process-wide structured loggers.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a component-tagged logger writing to stderr. With debug set,
// per-request and per-check detail is emitted.
func New(component string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
