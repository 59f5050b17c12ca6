package telemetry

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

type Options struct {
	ServiceName string
	// RuntimeMetrics starts Go runtime instrumentation (goroutines, GC, memory).
	RuntimeMetrics bool
}

// Metrics owns a private Prometheus registry so several instances can coexist
// in one process (tests build one per case).
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	requests        metric.Int64Counter
	requestLatency  metric.Float64Histogram
	upstreamCalls   metric.Int64Counter
	upstreamLatency metric.Float64Histogram
	upstreamErrors  metric.Int64Counter
	cacheLookups    metric.Int64Counter
	sections        metric.Int64Counter
}

var (
	_ ports.UpstreamObserver = (*Metrics)(nil)
	_ ports.CacheObserver    = (*Metrics)(nil)
	_ ports.SectionObserver  = (*Metrics)(nil)
)

func New(ctx context.Context, opts Options) (*Metrics, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithoutUnits(),
	)
	if err != nil {
		return nil, err
	}

	name := opts.ServiceName
	if name == "" {
		name = "dashboard-bff"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(name)),
	)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter("dashboard-bff")

	m := &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	var errs []error
	m.requests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of inbound HTTP requests"))
	errs = append(errs, err)
	m.requestLatency, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("Inbound HTTP request duration in seconds"))
	errs = append(errs, err)
	m.upstreamCalls, err = meter.Int64Counter("upstream_calls_total",
		metric.WithDescription("Outbound calls to backend services"))
	errs = append(errs, err)
	m.upstreamLatency, err = meter.Float64Histogram("upstream_call_duration_seconds",
		metric.WithDescription("Duration of outbound backend calls in seconds"))
	errs = append(errs, err)
	m.upstreamErrors, err = meter.Int64Counter("upstream_call_errors_total",
		metric.WithDescription("Outbound backend calls that failed"))
	errs = append(errs, err)
	m.cacheLookups, err = meter.Int64Counter("cache_lookups_total",
		metric.WithDescription("Cache-aside lookups by kind and outcome"))
	errs = append(errs, err)
	m.sections, err = meter.Int64Counter("view_sections_total",
		metric.WithDescription("Rendered view sections by view, section and status"))
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	if opts.RuntimeMetrics {
		if err := runtime.Start(
			runtime.WithMinimumReadMemStatsInterval(10*time.Second),
			runtime.WithMeterProvider(provider),
		); err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the Prometheus exposition for this instance.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.handler == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", recorder.status),
		)
		m.requests.Add(r.Context(), 1, attrs)
		m.requestLatency.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}

func (m *Metrics) ObserveUpstream(ctx context.Context, service domain.ServiceID, method string, statusCode int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "unreachable"
	if statusCode != domain.UpstreamUnreachable {
		status = strconv.Itoa(statusCode)
	}
	attrs := metric.WithAttributes(
		attribute.String("service", string(service)),
		attribute.String("method", method),
		attribute.String("status", status),
	)
	m.upstreamCalls.Add(ctx, 1, attrs)
	m.upstreamLatency.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.upstreamErrors.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) ObserveCacheLookup(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// ObserveSection counts how often each view section renders ready, empty or
// unavailable.
func (m *Metrics) ObserveSection(ctx context.Context, view, section, status string) {
	if m == nil {
		return
	}
	m.sections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("view", view),
		attribute.String("section", section),
		attribute.String("status", status),
	))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.status = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}
