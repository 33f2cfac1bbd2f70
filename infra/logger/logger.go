package logger

import corelogger "github.com/harsheyeditor/OneBlood/core/logger"

// Logger aliases the core logging interface so infra packages can depend on
// this package alone.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns the default Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
