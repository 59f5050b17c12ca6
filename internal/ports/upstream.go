package ports

import (
	"context"
	"io"
	"time"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

// RequestEnvelope fully describes one outbound call. It is built per call and
// never reused.
type RequestEnvelope struct {
	Service domain.ServiceID
	Method  string
	Path    string
	// Body is JSON-encoded for POST and PUT and ignored for GET and DELETE.
	Body any
}

// MultipartEnvelope carries a caller-built multipart payload. ContentType must
// include the boundary; the payload is forwarded untouched.
type MultipartEnvelope struct {
	Service     domain.ServiceID
	Path        string
	ContentType string
	Payload     io.Reader
}

// ServiceRouter issues exactly one HTTP request per call against the base
// address configured for the envelope's service. When out is non-nil a 2xx
// body is decoded into it. Every failure is a *domain.UpstreamError.
type ServiceRouter interface {
	Do(ctx context.Context, req RequestEnvelope, out any) error
	Upload(ctx context.Context, req MultipartEnvelope, out any) error
	BaseURL(service domain.ServiceID) string
}

// UpstreamObserver receives one callback per outbound call.
type UpstreamObserver interface {
	ObserveUpstream(ctx context.Context, service domain.ServiceID, method string, statusCode int, duration time.Duration, err error)
}
