package application

import "log/slog"

func applicationLogger(serviceName string) *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "dashboard",
		"layer", "application",
	)
}
