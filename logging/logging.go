// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package logging provides the Logger interface the loader SPI and scan
// engine use for the "debug(...)"/"error(...)" sinks of spec section 6, plus
// a logrus-backed default implementation.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/hostplane/pluginfw/internal/textformat"
)

// Level is a logging severity.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
)

// Fields is a set of structured key/value pairs attached to a log entry —
// in this module, typically "identifier", "version", and/or "path" per
// spec section 7.
type Fields map[string]interface{}

// Logger is the sink the loader SPI and scan engine write to. Hosts supply
// their own implementation (e.g. wrapping their existing logging stack);
// New returns a reasonable standalone default.
type Logger interface {
	Debug(fmt string, args ...interface{})
	Warn(fmt string, args ...interface{})
	Error(fmt string, args ...interface{})
	WithFields(Fields) Logger
	SetLevel(Level)
	GetLevel() Level
}

// StandardLogger is the default Logger, backed by logrus.
type StandardLogger struct {
	entry *logrus.Entry
}

// New returns a StandardLogger writing JSON to stderr at Info level.
func New() *StandardLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	return &StandardLogger{entry: logrus.NewEntry(l)}
}

// NewPretty returns a StandardLogger using the terser textformat.Formatter,
// suited to interactive use (the pluginscan CLI harness uses this one).
func NewPretty() *StandardLogger {
	l := logrus.New()
	l.SetFormatter(&textformat.Formatter{})
	return &StandardLogger{entry: logrus.NewEntry(l)}
}

func (l *StandardLogger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *StandardLogger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *StandardLogger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *StandardLogger) WithFields(f Fields) Logger {
	return &StandardLogger{entry: l.entry.WithFields(logrus.Fields(f))}
}

func (l *StandardLogger) SetLevel(level Level) {
	l.entry.Logger.SetLevel(toLogrusLevel(level))
}

func (l *StandardLogger) GetLevel() Level {
	return fromLogrusLevel(l.entry.Logger.GetLevel())
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case Error:
		return logrus.ErrorLevel
	case Warn:
		return logrus.WarnLevel
	case Debug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrusLevel(level logrus.Level) Level {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return Error
	case logrus.WarnLevel:
		return Warn
	case logrus.DebugLevel, logrus.TraceLevel:
		return Debug
	default:
		return Info
	}
}

// NoOpLogger discards everything. Useful as a default when a host doesn't
// care about loader/engine log output, and in tests.
type NoOpLogger struct{}

func NewNoOp() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) Debug(string, ...interface{}) {}
func (*NoOpLogger) Warn(string, ...interface{})  {}
func (*NoOpLogger) Error(string, ...interface{}) {}
func (n *NoOpLogger) WithFields(Fields) Logger   { return n }
func (*NoOpLogger) SetLevel(Level)               {}
func (*NoOpLogger) GetLevel() Level              { return Info }
