package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/dashboard-bff/internal/adapters/cache"
	httpadapter "github.com/viralforge/dashboard-bff/internal/adapters/http"
	"github.com/viralforge/dashboard-bff/internal/adapters/telemetry"
	"github.com/viralforge/dashboard-bff/internal/adapters/upstream"
	"github.com/viralforge/dashboard-bff/internal/application"
	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	cleanupFn  func(context.Context)
	draining   atomic.Bool
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping dashboard bff",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"blob_service_url", cfg.BlobServiceURL,
		"reports_service_url", cfg.ReportsServiceURL,
		"data_service_url", cfg.DataServiceURL,
		"cache_enabled", cfg.CacheEnabled,
	)

	metrics, err := telemetry.New(ctx, telemetry.Options{
		ServiceName:    cfg.ServiceName,
		RuntimeMetrics: cfg.RuntimeMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	router, err := upstream.NewRouter(upstream.Config{
		BaseURLs: cfg.ServiceURLs(),
		Timeout:  cfg.UpstreamTimeout,
		Observer: metrics,
	})
	if err != nil {
		_ = metrics.Shutdown(ctx)
		return nil, fmt.Errorf("init service router: %w", err)
	}

	// The cache client is created lazily on first read; a cache that is down
	// at startup only costs misses.
	var (
		reader ports.CacheReader = cacheadapter.Disabled{}
		handle *cacheadapter.Handle
	)
	if cfg.CacheEnabled {
		handle = cacheadapter.NewHandle(cfg.RedisURL, cacheadapter.ConnectOptions{ReadTimeout: cfg.CacheReadTimeout})
		reader = cacheadapter.NewReader(handle, cfg.CacheReadTimeout, metrics)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName: cfg.ServiceName,
			FanoutLimit: cfg.FanoutLimit,
		},
		Router:   router,
		Cache:    reader,
		Sections: metrics,
	})

	rt := &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    svc,
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		cleanupFn: func(ctx context.Context) {
			if handle != nil {
				_ = handle.Close()
			}
			_ = metrics.Shutdown(ctx)
		},
	}

	checks := map[string]func(context.Context) error{}
	if handle != nil {
		checks["cache"] = handle.Ping
	}
	routes := httpadapter.NewRouter(httpadapter.NewHandler(svc), httpadapter.RouterOptions{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        metrics.Middleware,
		MetricsHandler: metrics.Handler(),
		Ready:          rt.ready,
		Checks:         checks,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	rt.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthpb.RegisterHealthServer(rt.grpcServer, rt.health)
	rt.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, service := range domain.Services() {
		rt.health.SetServingStatus(string(service), healthpb.HealthCheckResponse_UNKNOWN)
	}
	return rt, nil
}

// ready fails once shutdown has begun so load balancers drain the instance.
func (r *Runtime) ready(context.Context) error {
	if r.draining.Load() {
		return errors.New("shutting down")
	}
	return nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(context.Background())
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go r.watchBackends(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	r.draining.Store(true)
	r.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return runErr
}

// Probe checks every backend once without starting any server.
func (r *Runtime) Probe(ctx context.Context) []domain.ServiceHealth {
	defer r.cleanupFn(context.Background())
	return r.service.CheckServices(ctx)
}

// watchBackends keeps the per-backend gRPC health entries current. The
// dashboard itself ("") stays SERVING; a down backend only degrades its views.
func (r *Runtime) watchBackends(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.HealthProbeInterval)
	defer ticker.Stop()
	for {
		r.applyHealth(r.service.CheckServices(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runtime) applyHealth(results []domain.ServiceHealth) {
	for _, result := range results {
		status := healthpb.HealthCheckResponse_SERVING
		if !result.Up {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		r.health.SetServingStatus(string(result.Service), status)
	}
}
