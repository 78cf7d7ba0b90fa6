// Package dlogger exposes a simple zap logger, with log levels
package dlogger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelWarn sets the log level to warn
	LogLevelWarn = "warn"

	// LogLevelError sets the log level to error
	LogLevelError = "error"

	// LogLevelNone sets logger to no logging
	LogLevelNone = "none"
)

// GetLogger returns a zap logger with the specified level
func GetLogger(logLevel string) (*zap.Logger, error) {
	if logLevel == LogLevelNone || logLevel == "" {
		return zap.NewNop(), nil
	}
	zapConfig := zap.NewProductionConfig()
	var lvl zapcore.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		return nil, err
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.Encoding = "console"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// MustGetLogger returns a zap logger with the specified level or panics
func MustGetLogger(logLevel string) *zap.Logger {
	l, err := GetLogger(logLevel)
	if err != nil {
		panic(err)
	}
	return l
}

// Printf adapts a zap logger to the Errorf/Warningf/Infof/Debugf family
// expected by some embedded libraries (e.g. badger).
type Printf struct {
	l *zap.SugaredLogger
}

// NewPrintf wraps a zap logger
func NewPrintf(l *zap.Logger) *Printf {
	if l == nil {
		l = zap.NewNop()
	}
	return &Printf{l: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (p *Printf) Errorf(format string, args ...interface{})   { p.l.Error(trim(format, args)) }
func (p *Printf) Warningf(format string, args ...interface{}) { p.l.Warn(trim(format, args)) }
func (p *Printf) Infof(format string, args ...interface{})    { p.l.Info(trim(format, args)) }
func (p *Printf) Debugf(format string, args ...interface{})   { p.l.Debug(trim(format, args)) }

func trim(format string, args []interface{}) string {
	msg := fmt.Sprintf(format, args...)
	for len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	return msg
}
