// Package logging provides the leveled Logger interface goarq's
// components log through, and the concrete implementations that satisfy
// it: a charmbracelet/log-backed logger for real use, and a no-op for
// tests and library embedding.
package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the logging surface goarq components depend on. Call sites
// never import charmbracelet/log directly, so the backing implementation
// can be swapped (or silenced) without touching protocol code.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// charmLogger adapts *charmlog.Logger to Logger.
type charmLogger struct {
	l *charmlog.Logger
}

// New creates a Logger that writes structured, leveled output to w.
func New(w io.Writer, name string) Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix:          name,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	return &charmLogger{l: l}
}

// Default returns a Logger writing to os.Stderr at debug level, so Debug
// calls are shown as well as Info and Error.
func Default(name string) Logger {
	c := New(os.Stderr, name).(*charmLogger)
	c.l.SetLevel(charmlog.DebugLevel)
	return c
}

func (c *charmLogger) Debug(format string, args ...interface{}) {
	c.l.Debugf(format, args...)
}

func (c *charmLogger) Info(format string, args ...interface{}) {
	c.l.Infof(format, args...)
}

func (c *charmLogger) Error(format string, args ...interface{}) {
	c.l.Errorf(format, args...)
}

// Noop discards every log call. Used by tests and by components that
// embed goarq without wanting its log output.
type Noop struct{}

func (Noop) Debug(string, ...interface{}) {}
func (Noop) Info(string, ...interface{})  {}
func (Noop) Error(string, ...interface{}) {}
