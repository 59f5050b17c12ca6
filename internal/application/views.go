package application

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

type SectionStatus string

const (
	SectionReady SectionStatus = "ready"
	// SectionEmpty means the backend answered with nothing.
	SectionEmpty SectionStatus = "empty"
	// SectionUnavailable means the backend call failed; Error says how.
	SectionUnavailable SectionStatus = "unavailable"
)

type SectionError struct {
	Service domain.ServiceID `json:"service,omitempty"`
	Status  string           `json:"status"`
	Message string           `json:"message"`
}

// Section is one independently loaded part of a view. A failing backend only
// ever marks its own section unavailable.
type Section[T any] struct {
	Status SectionStatus `json:"status"`
	Data   T             `json:"data"`
	Error  *SectionError `json:"error,omitempty"`
}

func (s Section[T]) Available() bool { return s.Status != SectionUnavailable }

func loadSection[T any](
	ctx context.Context,
	svc *Service,
	view, name string,
	load func(context.Context) (T, error),
	empty func(T) bool,
) Section[T] {
	data, err := load(ctx)
	var section Section[T]
	switch {
	case err != nil:
		section = Section[T]{Status: SectionUnavailable, Error: sectionError(err)}
		applicationLogger(svc.cfg.ServiceName).WarnContext(ctx, "view section unavailable",
			"operation", "compose_view",
			"view", view,
			"section", name,
			"outcome", "degraded",
			"error", err.Error(),
		)
	case empty(data):
		section = Section[T]{Status: SectionEmpty, Data: data}
	default:
		section = Section[T]{Status: SectionReady, Data: data}
	}
	if svc.sections != nil {
		svc.sections.ObserveSection(ctx, view, name, string(section.Status))
	}
	return section
}

func sectionError(err error) *SectionError {
	if upstreamErr, ok := domain.AsUpstreamError(err); ok {
		return &SectionError{
			Service: upstreamErr.Service,
			Status:  upstreamErr.Status(),
			Message: "service temporarily unavailable",
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &SectionError{Status: "timeout", Message: "request cancelled"}
	}
	return &SectionError{Status: "error", Message: err.Error()}
}

func emptySlice[T any](items []T) bool { return len(items) == 0 }

func emptyPage[T any](page domain.Page[T]) bool { return len(page.Content) == 0 }

// GenerateCapability is the guarded "generate report" control.
type GenerateCapability struct {
	Enabled bool     `json:"enabled"`
	Action  string   `json:"action"`
	Types   []string `json:"types,omitempty"`
}

type ReportsView struct {
	Reports  Section[[]domain.Report] `json:"reports"`
	Generate any                      `json:"generate"`
}

func (s *Service) ReportsView(ctx context.Context) (ReportsView, error) {
	if _, err := RequireAnyRole(ctx); err != nil {
		return ReportsView{}, err
	}
	return ReportsView{
		Reports: loadSection(ctx, s, "reports", "reports", s.ListReports, emptySlice[domain.Report]),
		Generate: Guard(ctx, WriterRoles(), GenerateCapability{
			Enabled: true,
			Action:  "/api/v1/reports/generate",
		}, nil),
	}, nil
}

type DataCapabilities struct {
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

type DataView struct {
	Query        string                                  `json:"query,omitempty"`
	Records      Section[domain.Page[domain.DataEntity]] `json:"records"`
	Capabilities DataCapabilities                        `json:"capabilities"`
}

// DataView lists records, or searches them when query is set.
func (s *Service) DataView(ctx context.Context, query string, page domain.PageRequest) (DataView, error) {
	if _, err := RequireAnyRole(ctx); err != nil {
		return DataView{}, err
	}
	load := func(ctx context.Context) (domain.Page[domain.DataEntity], error) {
		if query != "" {
			return s.SearchData(ctx, query, page)
		}
		return s.ListData(ctx, page)
	}
	return DataView{
		Query:   query,
		Records: loadSection(ctx, s, "data", "records", load, emptyPage[domain.DataEntity]),
		Capabilities: DataCapabilities{
			Create: Allowed(ctx, WriterRoles()...),
			Update: Allowed(ctx, WriterRoles()...),
			Delete: Allowed(ctx, AdminRoles()...),
		},
	}, nil
}

type ContainerSection struct {
	Name  string                         `json:"name"`
	Blobs Section[[]domain.BlobMetadata] `json:"blobs"`
}

type BlobsView struct {
	Containers Section[[]string]  `json:"containers"`
	Listings   []ContainerSection `json:"listings"`
	CanUpload  bool               `json:"can_upload"`
	CanDelete  bool               `json:"can_delete"`
}

// BlobsView lists containers and then each container's blobs, at most
// FanoutLimit listings in flight. A failed listing only affects its container.
func (s *Service) BlobsView(ctx context.Context) (BlobsView, error) {
	if _, err := RequireAnyRole(ctx); err != nil {
		return BlobsView{}, err
	}
	view := BlobsView{
		Listings:  []ContainerSection{},
		CanUpload: Allowed(ctx, WriterRoles()...),
		CanDelete: Allowed(ctx, AdminRoles()...),
	}
	view.Containers = loadSection(ctx, s, "blobs", "containers", func(ctx context.Context) ([]string, error) {
		return getJSON[[]string](ctx, s.router, domain.ServiceBlob, "/api/blobs/containers")
	}, emptySlice[string])
	if view.Containers.Status != SectionReady {
		return view, nil
	}

	listings := make([]ContainerSection, len(view.Containers.Data))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FanoutLimit)
	for i, container := range view.Containers.Data {
		g.Go(func() error {
			listings[i] = ContainerSection{
				Name: container,
				Blobs: loadSection(gctx, s, "blobs", "listing", func(ctx context.Context) ([]domain.BlobMetadata, error) {
					return s.ListBlobs(ctx, container)
				}, emptySlice[domain.BlobMetadata]),
			}
			return nil
		})
	}
	_ = g.Wait()
	view.Listings = listings
	return view, nil
}

type NavEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type Overview struct {
	Identity   domain.Identity `json:"identity"`
	Navigation []NavEntry      `json:"navigation"`
	Admin      any             `json:"admin"`
}

// Overview only needs an identity; the admin entry is shown to admins and
// replaced by the access-denied placeholder for everyone else.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	identity, err := RequireAnyRole(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Identity: identity,
		Navigation: []NavEntry{
			{Name: "Overview", Path: "/api/v1/views/overview"},
			{Name: "Blob Storage", Path: "/api/v1/views/blobs"},
			{Name: "Reports", Path: "/api/v1/views/reports"},
			{Name: "Data", Path: "/api/v1/views/data"},
		},
		Admin: Guard(ctx, AdminRoles(), NavEntry{Name: "Admin", Path: "/api/v1/admin/health"}, nil),
	}, nil
}
