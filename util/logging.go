// Copyright (c) YugaByte, Inc.

package util

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface handed to every component so that none of
// them depends on a concrete logging backend.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// With adds structured fields to every entry logged through the result.
	With(args ...interface{}) Logger

	// Cleanup flushes any buffered entries before the program exits.
	Cleanup()
}

var (
	defaultLogger Logger
	onceLogger    = &sync.Once{}
)

type zapSugaredLogger struct {
	logger *zap.SugaredLogger
}

// NewLogger creates a zap sugared logger writing to stdout, with errors
// duplicated to stderr.
func NewLogger(level string) Logger {
	zapLevel := zap.InfoLevel
	switch level {
	case "debug":
		zapLevel = zap.DebugLevel
	case "info":
		zapLevel = zap.InfoLevel
	case "warn":
		zapLevel = zap.WarnLevel
	case "error":
		zapLevel = zap.ErrorLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zapLevel),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), zap.ErrorLevel),
	)
	sugared := zap.New(core).Sugar().WithOptions(
		zap.AddCallerSkip(1),
		zap.AddCaller(),
	)
	return &zapSugaredLogger{logger: sugared}
}

// DefaultLogger returns the lazily created process-wide logger. The level is
// taken from the config (LogLevelKey).
func DefaultLogger() Logger {
	onceLogger.Do(func() {
		defaultLogger = NewLogger(GetConfig().GetString(LogLevelKey))
	})
	return defaultLogger
}

func (l *zapSugaredLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *zapSugaredLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *zapSugaredLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *zapSugaredLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *zapSugaredLogger) With(args ...interface{}) Logger {
	return &zapSugaredLogger{logger: l.logger.With(args...)}
}

func (l *zapSugaredLogger) Cleanup() {
	l.logger.Sync()
}

var _ Logger = (*zapSugaredLogger)(nil)
