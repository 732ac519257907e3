package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// baseLogger is a no-op until Init runs so packages can log from tests.
var baseLogger = zap.NewNop()

func Init() {
	l, err := zap.NewProduction()
	if err != nil {
		panic("cannot initialize Zap logger: " + err.Error())
	}
	baseLogger = l
}

// SetBase replaces the base logger. Used by tests that capture output.
func SetBase(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	baseLogger = l
}

// Sync flushes buffered log entries.
func Sync() {
	_ = baseLogger.Sync()
}

// returns a logger with request_id context if available
func With(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return baseLogger
	}
	reqID, ok := ctx.Value(requestIDKey).(string)
	if !ok || reqID == "" {
		return baseLogger
	}
	return baseLogger.With(zap.String(string(requestIDKey), reqID))
}

// InjectRequestID stores the ID in context after wrapping it
func InjectRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id stored by InjectRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
