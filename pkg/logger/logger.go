// Package logger builds the application's zap logger and carries the
// request id through stdlib contexts so every layer can tag its output.
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// Config selects log level and output encoding.
type Config struct {
	Level    string
	Encoding string
}

// New builds a production zap logger. Unknown levels fall back to info and
// unknown encodings to JSON; a misconfigured logger must never prevent boot.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Encoding == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zapCfg.Build()
}

// ContextWithRequestID attaches a request id to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// WithRequestID returns the logger enriched with the context's request id,
// or the logger unchanged when there is none.
func WithRequestID(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil || base == nil {
		return base
	}
	if reqID, ok := ctx.Value(ctxKey{}).(string); ok && reqID != "" {
		return base.With(zap.String("request_id", reqID))
	}
	return base
}
