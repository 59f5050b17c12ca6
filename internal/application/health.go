package application

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

// Cheapest read each backend offers.
var probePaths = map[domain.ServiceID]string{
	domain.ServiceBlob:    "/api/blobs/containers",
	domain.ServiceReports: "/api/reports",
	domain.ServiceData:    "/api/data?page=0&size=1",
}

// ProbeServices is the admin health panel.
func (s *Service) ProbeServices(ctx context.Context) ([]domain.ServiceHealth, error) {
	if _, err := RequireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.CheckServices(ctx), nil
}

// CheckServices probes every backend concurrently, one GET each, and returns
// the results in domain.Services order. It runs without an identity and is
// used by the probe command and the gRPC health server.
func (s *Service) CheckServices(ctx context.Context) []domain.ServiceHealth {
	services := domain.Services()
	results := make([]domain.ServiceHealth, len(services))

	var g errgroup.Group
	for i, service := range services {
		g.Go(func() error {
			results[i] = s.probe(ctx, service)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) probe(ctx context.Context, service domain.ServiceID) domain.ServiceHealth {
	path := probePaths[service]
	start := s.nowFn()
	err := s.router.Do(ctx, ports.RequestEnvelope{Service: service, Method: http.MethodGet, Path: path}, nil)
	health := domain.ServiceHealth{
		Service:   service,
		URL:       s.router.BaseURL(service) + path,
		Path:      path,
		Up:        err == nil,
		Status:    "ok",
		LatencyMS: s.nowFn().Sub(start).Milliseconds(),
		CheckedAt: start.UTC().Format(time.RFC3339),
	}
	if err != nil {
		health.Status = "error"
		if upstreamErr, ok := domain.AsUpstreamError(err); ok {
			health.Status = upstreamErr.Status()
		}
		health.Error = err.Error()
		applicationLogger(s.cfg.ServiceName).WarnContext(ctx, "backend probe failed",
			"operation", "probe_services",
			"target", string(service),
			"outcome", "failure",
			"error", err.Error(),
		)
	}
	return health
}
