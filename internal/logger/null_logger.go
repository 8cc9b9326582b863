package logger

import "github.com/sirupsen/logrus"

// NullLogger discards everything. Components fall back to it when no
// logger is supplied.
type NullLogger struct{}

// NewNullLogger returns a Logger that discards all output.
func NewNullLogger() Logger {
	return NullLogger{}
}

// OrNull returns l, or a NullLogger when l is nil.
func OrNull(l Logger) Logger {
	if l == nil {
		return NullLogger{}
	}
	return l
}

func (n NullLogger) WithFields(map[string]interface{}) Logger { return n }
func (n NullLogger) WithField(string, interface{}) Logger { return n }
func (n NullLogger) WithError(error) Logger { return n }
func (NullLogger) Debug(...interface{}) {}
func (NullLogger) Info(...interface{}) {}
func (NullLogger) Warn(...interface{}) {}
func (NullLogger) Error(...interface{}) {}
func (NullLogger) Log(logrus.Level, ...interface{}) {}
func (NullLogger) Debugf(string, ...interface{}) {}
func (NullLogger) Infof(string, ...interface{}) {}
func (NullLogger) Warnf(string, ...interface{}) {}
func (NullLogger) Errorf(string, ...interface{}) {}

// Fatal does not exit.
func (NullLogger) Fatal(...interface{}) {}
