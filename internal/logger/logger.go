package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger so call sites don't depend on zap's constructor
// choices.
type Logger struct {
	*zap.Logger
}

var (
	global *Logger
	once   sync.Once
)

// Init builds the global logger. Call once at startup; Get falls back to a
// production logger if Init was never called.
func Init(environment string, debug bool) (*Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return nil, err
	}
	global = &Logger{Logger: l}
	return global, nil
}

// Get returns the global logger, initializing a default one if needed.
func Get() *Logger {
	once.Do(func() {
		if global == nil {
			l, err := zap.NewProduction()
			if err != nil {
				l = zap.NewNop()
			}
			global = &Logger{Logger: l}
		}
	})
	return global
}

// Sync flushes buffered log entries. Safe to call when Init never ran.
func Sync() {
	if global != nil {
		_ = global.Logger.Sync()
	}
}

// Named returns a child logger with the given name segment.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// With returns a child logger with the given structured fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}
