package application

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

// UploadInput is a multipart form built by the caller. ContentType carries
// the boundary and Payload is forwarded byte for byte.
type UploadInput struct {
	ContentType string
	Payload     io.Reader
}

func (s *Service) ListContainers(ctx context.Context) ([]string, error) {
	return getJSON[[]string](ctx, s.router, domain.ServiceBlob, "/api/blobs/containers")
}

// ListBlobs answers from the cache when the blob service has published the
// container listing, and asks the backend otherwise.
func (s *Service) ListBlobs(ctx context.Context, container string) ([]domain.BlobMetadata, error) {
	if err := requireName("container", container); err != nil {
		return nil, err
	}
	var cached []domain.BlobMetadata
	if s.cache.ReadJSON(ctx, blobListKey(container), &cached) && cached != nil {
		return cached, nil
	}
	return getJSON[[]domain.BlobMetadata](ctx, s.router, domain.ServiceBlob, "/api/blobs/"+url.PathEscape(container))
}

func (s *Service) GetBlobMetadata(ctx context.Context, container, blob string) (domain.BlobMetadata, error) {
	if err := requireName("container", container); err != nil {
		return domain.BlobMetadata{}, err
	}
	if err := requireName("blob", blob); err != nil {
		return domain.BlobMetadata{}, err
	}
	return getJSON[domain.BlobMetadata](ctx, s.router, domain.ServiceBlob, blobPath(container, blob)+"/metadata")
}

func (s *Service) UploadBlob(ctx context.Context, container string, input UploadInput) (domain.UploadResponse, error) {
	if err := requireName("container", container); err != nil {
		return domain.UploadResponse{}, err
	}
	return uploadMultipart[domain.UploadResponse](ctx, s.router, domain.ServiceBlob, "/api/blobs/"+url.PathEscape(container), input.ContentType, input.Payload)
}

func (s *Service) DeleteBlob(ctx context.Context, container, blob string) error {
	if err := requireName("container", container); err != nil {
		return err
	}
	if err := requireName("blob", blob); err != nil {
		return err
	}
	return deleteAt(ctx, s.router, domain.ServiceBlob, blobPath(container, blob))
}

func blobPath(container, blob string) string {
	return "/api/blobs/" + url.PathEscape(container) + "/" + url.PathEscape(blob)
}

func requireName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	return nil
}
