// file: internal/logger/logger.go
// version: 1.0.0
// guid: a3d0e1f4-3f6a-4b4e-9c1c-2e1f5b7c9d10

// Package logger builds the zap loggers used across the application and
// provides a small lifecycle helper for logging catalog operations.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and destination.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // optional file; empty logs to stderr
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	sink := zapcore.Lock(os.Stderr)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(file)
	}

	return zap.New(zapcore.NewCore(encoder, sink, level)), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Operation tracks the lifecycle of a single catalog operation.
type Operation struct {
	log    *zap.Logger
	action string
	start  time.Time
	fields []zap.Field
}

// StartOperation logs the start of action and returns its tracker.
func StartOperation(l *zap.Logger, action string, fields ...zap.Field) *Operation {
	op := &Operation{
		log:    OrNop(l),
		action: action,
		start:  time.Now(),
		fields: append([]zap.Field{zap.String("action", action)}, fields...),
	}
	op.log.Debug("operation started", op.fields...)
	return op
}

// With adds fields to every later entry of the operation.
func (o *Operation) With(fields ...zap.Field) {
	o.fields = append(o.fields, fields...)
}

// Success logs completion.
func (o *Operation) Success(msg string, fields ...zap.Field) {
	o.log.Info(msg, o.entryFields(fields)...)
}

// Failure logs a business outcome that did not succeed. Expected outcomes
// (no stock, no loan) are logged at info, everything else at error.
func (o *Operation) Failure(err error, expected bool, fields ...zap.Field) {
	all := o.entryFields(append(fields, zap.Error(err)))
	if expected {
		o.log.Info("operation rejected", all...)
		return
	}
	o.log.Error("operation failed", all...)
}

// Warn logs a warning in the context of the operation.
func (o *Operation) Warn(msg string, fields ...zap.Field) {
	o.log.Warn(msg, o.entryFields(fields)...)
}

// Elapsed returns the time since the operation started.
func (o *Operation) Elapsed() time.Duration {
	return time.Since(o.start)
}

func (o *Operation) entryFields(extra []zap.Field) []zap.Field {
	all := make([]zap.Field, 0, len(o.fields)+len(extra)+1)
	all = append(all, o.fields...)
	all = append(all, extra...)
	return append(all, zap.Duration("duration", o.Elapsed()))
}
