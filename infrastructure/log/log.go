package log

import (
	"go.uber.org/zap"
)

// Logger is the diagnostics sink handed to every pipeline stage.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	With(key string, value interface{}) Logger
	Sync()
}

// Structure for zap
type zapLogger struct {
	logger *zap.SugaredLogger
}

func NewZapLogger(logger *zap.Logger) Logger {
	return &zapLogger{
		logger: logger.Sugar(),
	}
}

// New builds a development logger when debug is set and a production logger otherwise.
func New(debug bool) Logger {
	var zapLog *zap.Logger
	if debug {
		zapLog, _ = zap.NewDevelopment(zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		zapLog, _ = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return NewZapLogger(zapLog)
}

// Nop discards everything.
func Nop() Logger {
	return NewZapLogger(zap.NewNop())
}

func (l *zapLogger) Debugf(template string, args ...interface{}) {
	l.logger.Debugf(template, args...)
}

func (l *zapLogger) Infof(template string, args ...interface{}) {
	l.logger.Infof(template, args...)
}

func (l *zapLogger) Warnf(template string, args ...interface{}) {
	l.logger.Warnf(template, args...)
}

func (l *zapLogger) Errorf(template string, args ...interface{}) {
	l.logger.Errorf(template, args...)
}

func (l *zapLogger) With(key string, value interface{}) Logger {
	return &zapLogger{logger: l.logger.With(key, value)}
}

// Sync flushes the remaining log entries in buff.
func (l *zapLogger) Sync() {
	_ = l.logger.Sync()
}
