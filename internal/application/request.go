package application

import (
	"context"
	"io"
	"net/http"

	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

func getJSON[T any](ctx context.Context, router ports.ServiceRouter, service domain.ServiceID, path string) (T, error) {
	var out T
	err := router.Do(ctx, ports.RequestEnvelope{Service: service, Method: http.MethodGet, Path: path}, &out)
	return out, err
}

func sendJSON[T any](ctx context.Context, router ports.ServiceRouter, service domain.ServiceID, method, path string, body any) (T, error) {
	var out T
	err := router.Do(ctx, ports.RequestEnvelope{Service: service, Method: method, Path: path, Body: body}, &out)
	return out, err
}

func deleteAt(ctx context.Context, router ports.ServiceRouter, service domain.ServiceID, path string) error {
	return router.Do(ctx, ports.RequestEnvelope{Service: service, Method: http.MethodDelete, Path: path}, nil)
}

func uploadMultipart[T any](ctx context.Context, router ports.ServiceRouter, service domain.ServiceID, path, contentType string, payload io.Reader) (T, error) {
	var out T
	err := router.Upload(ctx, ports.MultipartEnvelope{
		Service:     service,
		Path:        path,
		ContentType: contentType,
		Payload:     payload,
	}, &out)
	return out, err
}
