package logger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/obi2na/courier/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInjectRequestID(t *testing.T) {
	ctx := context.Background()
	reqID := "test-id-123"

	ctxWithID := logger.InjectRequestID(ctx, reqID)

	if got := logger.RequestID(ctxWithID); got != reqID {
		t.Errorf("Expected request_id %s, got %v", reqID, got)
	}
}

func TestWithAddsRequestID(t *testing.T) {
	// Set up a test logger with in-memory buffer
	var buf strings.Builder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zap.InfoLevel,
	)
	logger.SetBase(zap.New(core))
	defer logger.SetBase(nil)

	ctx := logger.InjectRequestID(context.Background(), "test-id-456")
	logger.With(ctx).Info("testing With")

	if !strings.Contains(buf.String(), `"request_id":"test-id-456"`) {
		t.Errorf("Expected log to contain request_id, got: %s", buf.String())
	}
}

func TestWithoutRequestIDUsesBaseLogger(t *testing.T) {
	var buf strings.Builder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zap.InfoLevel,
	)
	logger.SetBase(zap.New(core))
	defer logger.SetBase(nil)

	logger.With(context.Background()).Info("no request id")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("Expected no request_id field, got: %s", buf.String())
	}
}
