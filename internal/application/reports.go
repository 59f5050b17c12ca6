package application

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

func (s *Service) ListReports(ctx context.Context) ([]domain.Report, error) {
	return getJSON[[]domain.Report](ctx, s.router, domain.ServiceReports, "/api/reports")
}

func (s *Service) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	return getJSON[domain.Report](ctx, s.router, domain.ServiceReports, fmt.Sprintf("/api/reports/%d", id))
}

// GetReportStatus is the polling endpoint. The reports service caches the
// status of every report it touches, so most polls never reach it.
func (s *Service) GetReportStatus(ctx context.Context, id int64) (domain.ReportStatus, error) {
	var cached string
	if s.cache.ReadJSON(ctx, reportStatusKey(id), &cached) && cached != "" {
		return domain.ReportStatus{ID: strconv.FormatInt(id, 10), Status: cached}, nil
	}
	return getJSON[domain.ReportStatus](ctx, s.router, domain.ServiceReports, fmt.Sprintf("/api/reports/%d/status", id))
}

func (s *Service) GenerateReport(ctx context.Context, req domain.GenerateReportRequest) (domain.Report, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" {
		return domain.Report{}, fmt.Errorf("%w: report name and type are required", domain.ErrInvalidInput)
	}
	return sendJSON[domain.Report](ctx, s.router, domain.ServiceReports, http.MethodPost, "/api/reports/generate", req)
}
