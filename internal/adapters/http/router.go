package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/viralforge/dashboard-bff/internal/application"
)

type Handler struct {
	service        *application.Service
	maxUploadBytes int64
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service, maxUploadBytes: defaultMaxUploadBytes}
}

type RouterOptions struct {
	AllowedOrigins []string
	// Metrics wraps every route; nil disables request metrics.
	Metrics        func(http.Handler) http.Handler
	MetricsHandler http.Handler
	// Ready backs /readyz. A nil func always reports ready.
	Ready func(context.Context) error
	// Checks are reported by /readyz as "up" or "down" but never fail it.
	Checks map[string]func(context.Context) error
	// MaxUploadBytes caps blob upload bodies; zero keeps the handler default.
	MaxUploadBytes int64
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	if opts.MaxUploadBytes > 0 {
		handler.maxUploadBytes = opts.MaxUploadBytes
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(identityMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	if opts.Metrics != nil {
		r.Use(opts.Metrics)
	}
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id", application.HeaderUser, application.HeaderRoles},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), requestIDFromContext(r.Context()))
				return
			}
		}
		checks := make(map[string]string, len(opts.Checks))
		for name, check := range opts.Checks {
			checks[name] = "up"
			if err := check(r.Context()); err != nil {
				checks[name] = "down"
			}
		}
		writeSuccess(w, http.StatusOK, map[string]any{"ready": true, "checks": checks})
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", handler.me)

		r.Route("/blobs", func(r chi.Router) {
			r.Get("/containers", handler.listContainers)
			r.Get("/{container}", handler.listBlobs)
			r.Post("/{container}", handler.uploadBlob)
			r.Get("/{container}/{blob}/metadata", handler.getBlobMetadata)
			r.Delete("/{container}/{blob}", handler.deleteBlob)
		})

		r.Route("/data", func(r chi.Router) {
			r.Get("/", handler.listData)
			r.Post("/", handler.createData)
			r.Get("/search", handler.searchData)
			r.Get("/{id}", handler.getData)
			r.Put("/{id}", handler.updateData)
			r.Delete("/{id}", handler.deleteData)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", handler.listReports)
			r.Post("/generate", handler.generateReport)
			r.Get("/{id}", handler.getReport)
			r.Get("/{id}/status", handler.getReportStatus)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/reports/{id}/status", handler.cachedReportStatus)
			r.Get("/blobs/{container}", handler.cachedBlobList)
			r.Get("/data/{id}", handler.cachedDataEntity)
			r.Get("/hash/{key}", handler.cachedHash)
		})

		r.Route("/views", func(r chi.Router) {
			r.Get("/overview", handler.overview)
			r.Get("/reports", handler.reportsView)
			r.Get("/data", handler.dataView)
			r.Get("/blobs", handler.blobsView)
		})

		r.Get("/admin/health", handler.probeServices)
	})
	return r
}
