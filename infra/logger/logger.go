package logger

import corelogger "github.com/kilianp07/solarswarm/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.Nop

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger { return corelogger.OrNop(l) }

// New returns the logger for component configured from the environment.
func New(component string) Logger {
	return NewZerologLogger(component, OptionsFromEnv())
}
