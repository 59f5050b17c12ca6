package cache

import "log/slog"

const serviceName = "Dashboard-BFF"

func cacheLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "cache",
		"layer", "adapter",
	)
}
