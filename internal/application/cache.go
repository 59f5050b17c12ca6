package application

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys written by the backends. The dashboard only ever reads them.
func reportStatusKey(id int64) string     { return fmt.Sprintf("report:status:%d", id) }
func blobListKey(container string) string { return "blob:list:" + container }
func dataKey(id int64) string             { return fmt.Sprintf("data:%d", id) }

// CachedReportStatus reads the report status straight from the cache. ok is
// false on a miss or any cache failure.
func (s *Service) CachedReportStatus(ctx context.Context, id int64) (status string, ok bool) {
	ok = s.cache.ReadJSON(ctx, reportStatusKey(id), &status)
	return status, ok
}

func (s *Service) CachedBlobList(ctx context.Context, container string) ([]json.RawMessage, bool) {
	var blobs []json.RawMessage
	ok := s.cache.ReadJSON(ctx, blobListKey(container), &blobs)
	return blobs, ok
}

func (s *Service) CachedDataEntity(ctx context.Context, id int64) (json.RawMessage, bool) {
	var entity json.RawMessage
	ok := s.cache.ReadJSON(ctx, dataKey(id), &entity)
	return entity, ok
}

// CachedHash returns a raw cache hash under a caller-chosen key.
func (s *Service) CachedHash(ctx context.Context, key string) (map[string]string, bool, error) {
	if err := requireName("key", key); err != nil {
		return nil, false, err
	}
	fields, ok := s.cache.ReadHash(ctx, key)
	return fields, ok, nil
}
