package application

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

type fakeResponse struct {
	body  any
	err   error
	delay time.Duration
}

type fakeRouter struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []ports.RequestEnvelope
	uploads   []ports.MultipartEnvelope
	uploaded  [][]byte

	inFlight    int
	maxInFlight int
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{responses: map[string]fakeResponse{}}
}

func routeKey(method string, service domain.ServiceID, path string) string {
	return method + " " + string(service) + " " + path
}

func (f *fakeRouter) on(method string, service domain.ServiceID, path string, resp fakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[routeKey(method, service, path)] = resp
}

func (f *fakeRouter) Do(ctx context.Context, req ports.RequestEnvelope, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	resp, ok := f.responses[routeKey(req.Method, req.Service, req.Path)]
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-ctx.Done():
			return &domain.UpstreamError{Service: req.Service, Method: req.Method, Path: req.Path, Reason: "canceled", Err: ctx.Err()}
		}
	}
	if !ok {
		return &domain.UpstreamError{Service: req.Service, Method: req.Method, Path: req.Path, StatusCode: http.StatusNotFound, Reason: "Not Found"}
	}
	if resp.err != nil {
		return resp.err
	}
	if out == nil || resp.body == nil || req.Method == http.MethodDelete {
		return nil
	}
	raw, err := json.Marshal(resp.body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeRouter) Upload(_ context.Context, req ports.MultipartEnvelope, out any) error {
	raw, _ := io.ReadAll(req.Payload)
	f.mu.Lock()
	f.uploads = append(f.uploads, req)
	f.uploaded = append(f.uploaded, raw)
	resp, ok := f.responses[routeKey(http.MethodPost, req.Service, req.Path)]
	f.mu.Unlock()
	if !ok {
		return &domain.UpstreamError{Service: req.Service, Method: http.MethodPost, Path: req.Path, StatusCode: http.StatusNotFound}
	}
	if resp.err != nil {
		return resp.err
	}
	encoded, _ := json.Marshal(resp.body)
	return json.Unmarshal(encoded, out)
}

func (f *fakeRouter) BaseURL(service domain.ServiceID) string {
	return "http://" + string(service) + "-service:8080"
}

func (f *fakeRouter) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, routeKey(c.Method, c.Service, c.Path))
	}
	return out
}

type fakeCache struct {
	values map[string]string
	hashes map[string]map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}, hashes: map[string]map[string]string{}}
}

func (c *fakeCache) ReadJSON(_ context.Context, key string, out any) bool {
	raw, ok := c.values[key]
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (c *fakeCache) ReadHash(_ context.Context, key string) (map[string]string, bool) {
	fields, ok := c.hashes[key]
	return fields, ok && len(fields) > 0
}

type sectionRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *sectionRecorder) ObserveSection(_ context.Context, view, section, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, view+"/"+section+"="+status)
}

func newTestService(router *fakeRouter, cache *fakeCache) *Service {
	deps := Dependencies{
		Router: router,
		Clock:  func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	if cache != nil {
		deps.Cache = cache
	}
	return NewService(deps)
}

func as(username string, roles ...domain.Role) context.Context {
	return WithIdentity(context.Background(), domain.Identity{Username: username, Roles: roles})
}
