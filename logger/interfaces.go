package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is what components take instead of reaching for the global logger.
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	WithComponent(component string) zerolog.Logger
}

type zlogger struct {
	l zerolog.Logger
}

// New wraps a zerolog logger.
func New(l zerolog.Logger) Logger {
	return &zlogger{l: l}
}

// Global returns a Logger backed by the global logger as configured by Init.
func Global() Logger {
	return &zlogger{l: globalLogger}
}

func (z *zlogger) Debug() *zerolog.Event { return z.l.Debug() }
func (z *zlogger) Info() *zerolog.Event  { return z.l.Info() }
func (z *zlogger) Warn() *zerolog.Event  { return z.l.Warn() }
func (z *zlogger) Error() *zerolog.Event { return z.l.Error() }
func (z *zlogger) WithComponent(component string) zerolog.Logger {
	return z.l.With().Str("component", component).Logger()
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return &zlogger{l: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}

// NewWriterLogger logs JSON lines to w at debug level. Tests use it to assert on output.
func NewWriterLogger(w io.Writer) Logger {
	return &zlogger{l: zerolog.New(w).Level(zerolog.DebugLevel)}
}
