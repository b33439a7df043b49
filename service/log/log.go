package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var logger *zap.Logger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("DEBUG") != "" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	if logger, err = cfg.Build(); err != nil {
		logger = zap.NewNop()
	}
}

// Logger returns the logger carried by the context, or the default logger
func Logger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return logger
}

// With returns a context whose logger adds the key/value pair to every entry
func With(ctx context.Context, key string, value interface{}) context.Context {
	return WithFields(ctx, zap.Any(key, value))
}

// WithFields returns a context whose logger adds the fields to every entry
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, Logger(ctx).With(fields...))
}

// WithLogger returns a context carrying the logger
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Fatal logs the message with the default logger and exits
func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}
