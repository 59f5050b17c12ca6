package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

const (
	// DefaultTimeout bounds a single outbound call when Config.Timeout is unset.
	DefaultTimeout = 10 * time.Second

	maxDecodedBody = 32 << 20
)

type Config struct {
	BaseURLs   map[domain.ServiceID]string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   ports.UpstreamObserver
}

// Router is the HTTP implementation of ports.ServiceRouter. The address table
// is fixed at construction and only read afterwards.
type Router struct {
	baseURLs map[domain.ServiceID]string
	timeout  time.Duration
	client   *http.Client
	observer ports.UpstreamObserver
}

var _ ports.ServiceRouter = (*Router)(nil)

// NewRouter validates that every known service has an absolute http(s) base
// address. A missing or malformed entry is a configuration error.
func NewRouter(cfg Config) (*Router, error) {
	table := make(map[domain.ServiceID]string, len(domain.Services()))
	for _, service := range domain.Services() {
		raw := strings.TrimSpace(cfg.BaseURLs[service])
		if raw == "" {
			return nil, fmt.Errorf("no base address configured for %s service", service)
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s service address: %w", service, err)
		}
		if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fmt.Errorf("%s service address %q must be an absolute http(s) url", service, raw)
		}
		table[service] = strings.TrimRight(raw, "/")
	}
	for service := range cfg.BaseURLs {
		if !service.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, string(service))
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Router{
		baseURLs: table,
		timeout:  timeout,
		client:   client,
		observer: cfg.Observer,
	}, nil
}

func (r *Router) BaseURL(service domain.ServiceID) string {
	return r.baseURLs[service]
}

func (r *Router) Do(ctx context.Context, req ports.RequestEnvelope, out any) error {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	hasBody := req.Body != nil && (method == http.MethodPost || method == http.MethodPut)
	if hasBody {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("%w: encode %s request body: %v", domain.ErrInvalidInput, req.Service, err)
		}
		body = bytes.NewReader(raw)
	}

	return r.execute(ctx, req.Service, method, req.Path, body, func(h http.Header) {
		h.Set("Accept", "application/json")
		if hasBody {
			h.Set("Content-Type", "application/json")
		}
		if method == http.MethodGet {
			// Freshness is the cache-aside reader's job, never the transport's.
			h.Set("Cache-Control", "no-cache, no-store")
			h.Set("Pragma", "no-cache")
		}
	}, decodeInto(method, out))
}

func (r *Router) Upload(ctx context.Context, req ports.MultipartEnvelope, out any) error {
	if req.Payload == nil || strings.TrimSpace(req.ContentType) == "" {
		return fmt.Errorf("%w: multipart upload requires a payload and content type", domain.ErrInvalidInput)
	}
	return r.execute(ctx, req.Service, http.MethodPost, req.Path, req.Payload, func(h http.Header) {
		h.Set("Accept", "application/json")
		h.Set("Content-Type", req.ContentType)
	}, decodeInto(http.MethodPost, out))
}

func (r *Router) execute(
	ctx context.Context,
	service domain.ServiceID,
	method string,
	path string,
	body io.Reader,
	setHeaders func(http.Header),
	decode func([]byte) error,
) error {
	base, ok := r.baseURLs[service]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownService, string(service))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", domain.ErrInvalidInput, service, err)
	}
	setHeaders(httpReq.Header)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		// The caller's body hit its cap while streaming; the backend is not at fault.
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", domain.ErrPayloadTooLarge, tooLarge.Limit)
		}
		upstreamErr := &domain.UpstreamError{
			Service:    service,
			Method:     method,
			Path:       path,
			StatusCode: domain.UpstreamUnreachable,
			Reason:     unreachableReason(err),
			Err:        err,
		}
		r.finish(ctx, service, method, path, domain.UpstreamUnreachable, start, upstreamErr)
		return upstreamErr
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := &domain.UpstreamError{
			Service:    service,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
		}
		r.finish(ctx, service, method, path, resp.StatusCode, start, upstreamErr)
		return upstreamErr
	}

	if decode != nil {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDecodedBody))
		if err == nil {
			err = decode(raw)
		}
		if err != nil {
			upstreamErr := &domain.UpstreamError{
				Service:    service,
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Reason:     "invalid response body",
				Err:        err,
			}
			r.finish(ctx, service, method, path, resp.StatusCode, start, upstreamErr)
			return upstreamErr
		}
	}

	r.finish(ctx, service, method, path, resp.StatusCode, start, nil)
	return nil
}

func (r *Router) finish(ctx context.Context, service domain.ServiceID, method, path string, statusCode int, start time.Time, err error) {
	duration := time.Since(start)
	if r.observer != nil {
		r.observer.ObserveUpstream(ctx, service, method, statusCode, duration, err)
	}
	logUpstreamCall(ctx, service, method, path, statusCode, duration, err)
}

// decodeInto returns nil when there is nothing to decode: DELETE never yields
// a value, and callers pass a nil out when they do not need one.
func decodeInto(method string, out any) func([]byte) error {
	if out == nil || method == http.MethodDelete {
		return nil
	}
	return func(raw []byte) error {
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		return json.Unmarshal(raw, out)
	}
}

func unreachableReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unreachable"
	}
}
