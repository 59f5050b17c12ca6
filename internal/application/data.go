package application

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

// Listings are always newest first.
const dataSort = "createdAt,desc"

func (s *Service) ListData(ctx context.Context, page domain.PageRequest) (domain.Page[domain.DataEntity], error) {
	page = page.WithDefaults()
	path := fmt.Sprintf("/api/data?page=%d&size=%d&sort=%s", page.Page, page.Size, dataSort)
	return getJSON[domain.Page[domain.DataEntity]](ctx, s.router, domain.ServiceData, path)
}

// GetData answers from the cache when the data service has a cached copy of
// the entity, and asks the backend otherwise.
func (s *Service) GetData(ctx context.Context, id int64) (domain.DataEntity, error) {
	var cached domain.DataEntity
	if s.cache.ReadJSON(ctx, dataKey(id), &cached) && cached.ID == id {
		return cached, nil
	}
	return getJSON[domain.DataEntity](ctx, s.router, domain.ServiceData, dataPath(id))
}

func (s *Service) SearchData(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.DataEntity], error) {
	page = page.WithDefaults()
	path := fmt.Sprintf("/api/data/search?q=%s&page=%d&size=%d", url.QueryEscape(query), page.Page, page.Size)
	return getJSON[domain.Page[domain.DataEntity]](ctx, s.router, domain.ServiceData, path)
}

func (s *Service) CreateData(ctx context.Context, input domain.DataEntityInput) (domain.DataEntity, error) {
	return sendJSON[domain.DataEntity](ctx, s.router, domain.ServiceData, http.MethodPost, "/api/data", input)
}

func (s *Service) UpdateData(ctx context.Context, id int64, input domain.DataEntityInput) (domain.DataEntity, error) {
	return sendJSON[domain.DataEntity](ctx, s.router, domain.ServiceData, http.MethodPut, dataPath(id), input)
}

func (s *Service) DeleteData(ctx context.Context, id int64) error {
	return deleteAt(ctx, s.router, domain.ServiceData, dataPath(id))
}

func dataPath(id int64) string {
	return fmt.Sprintf("/api/data/%d", id)
}
