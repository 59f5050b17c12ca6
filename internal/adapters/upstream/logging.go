package upstream

import (
	"context"
	"log/slog"
	"time"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

const serviceName = "Dashboard-BFF"

func upstreamLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "upstream",
		"layer", "adapter",
	)
}

func logUpstreamCall(ctx context.Context, service domain.ServiceID, method, path string, statusCode int, duration time.Duration, err error) {
	fields := []any{
		"operation", "upstream_request",
		"target", string(service),
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
	if err == nil {
		fields = append(fields, "outcome", "success")
		upstreamLogger().DebugContext(ctx, "upstream call completed", fields...)
		return
	}
	fields = append(fields, "outcome", "failure", "error", err.Error())
	if statusCode == domain.UpstreamUnreachable || statusCode >= 500 {
		upstreamLogger().ErrorContext(ctx, "upstream call failed", fields...)
		return
	}
	upstreamLogger().WarnContext(ctx, "upstream call failed", fields...)
}
