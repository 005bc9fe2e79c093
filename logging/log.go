// Package logging wraps zap with per-component named loggers.
package logging

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var root atomic.Pointer[zap.Logger]

func init() {
	l, err := build(zapcore.InfoLevel, "stdout")
	if err != nil {
		l = zap.NewNop()
	}
	root.Store(l)
}

func build(level zapcore.Level, output string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{output}
	cfg.Sampling = nil
	return cfg.Build()
}

// Configure replaces the root logger. An empty output means stdout, an
// empty level means info.
func Configure(output, level string) error {
	if output == "" {
		output = "stdout"
	}
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
	}
	l, err := build(lvl, output)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	root.Store(l)
	return nil
}

// For returns a logger named after the calling component.
func For(name string) *zap.SugaredLogger {
	return root.Load().Named(name).Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	_ = root.Load().Sync()
}
