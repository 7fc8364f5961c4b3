// Package requestctx carries request-scoped values that are needed below the
// transport layer (stores, services, background notifications).
package requestctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	tenantIDKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

func GetTenantID(ctx context.Context) string {
	if value, ok := ctx.Value(tenantIDKey).(string); ok {
		return value
	}
	return ""
}

// Logger returns the default logger annotated with whatever ids the context carries.
func Logger(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := GetRequestID(ctx); id != "" {
		logger = logger.With("requestId", id)
	}
	if tenant := GetTenantID(ctx); tenant != "" {
		logger = logger.With("tenantId", tenant)
	}
	return logger
}
