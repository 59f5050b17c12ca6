package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

type recordedCall struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	CacheCtl    string
	Body        []byte
}

type fakeBackend struct {
	mu     sync.Mutex
	calls  []recordedCall
	status int
	body   string
	server *httptest.Server
}

func newFakeBackend(t *testing.T, status int, body string) *fakeBackend {
	t.Helper()
	f := &fakeBackend{status: status, body: body}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			CacheCtl:    r.Header.Get("Cache-Control"),
			Body:        raw,
		})
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBackend) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

type observedCall struct {
	service domain.ServiceID
	status  int
	err     error
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observedCall
}

func (o *recordingObserver) ObserveUpstream(_ context.Context, service domain.ServiceID, _ string, statusCode int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observedCall{service: service, status: statusCode, err: err})
}

func newTestRouter(t *testing.T, blob, reports, data string) *Router {
	t.Helper()
	r, err := NewRouter(Config{
		BaseURLs: map[domain.ServiceID]string{
			domain.ServiceBlob:    blob,
			domain.ServiceReports: reports,
			domain.ServiceData:    data,
		},
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return r
}

func TestNewRouterRejectsMissingOrInvalidAddresses(t *testing.T) {
	_, err := NewRouter(Config{BaseURLs: map[domain.ServiceID]string{
		domain.ServiceBlob:    "http://blob:8080",
		domain.ServiceReports: "http://reports:8080",
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data")

	_, err = NewRouter(Config{BaseURLs: map[domain.ServiceID]string{
		domain.ServiceBlob:    "blob-service:8080",
		domain.ServiceReports: "http://reports:8080",
		domain.ServiceData:    "http://data:8080",
	}})
	require.Error(t, err)

	_, err = NewRouter(Config{BaseURLs: map[domain.ServiceID]string{
		domain.ServiceBlob:    "http://blob:8080",
		domain.ServiceReports: "http://reports:8080",
		domain.ServiceData:    "http://data:8080",
		domain.ServiceID("billing"): "http://billing:8080",
	}})
	require.ErrorIs(t, err, domain.ErrUnknownService)
}

func TestEachServiceTargetsItsOwnBaseAddress(t *testing.T) {
	blob := newFakeBackend(t, http.StatusOK, `[]`)
	reports := newFakeBackend(t, http.StatusOK, `[]`)
	data := newFakeBackend(t, http.StatusOK, `[]`)
	router := newTestRouter(t, blob.server.URL, reports.server.URL, data.server.URL)

	ctx := context.Background()
	var out []string
	require.NoError(t, router.Do(ctx, ports.RequestEnvelope{Service: domain.ServiceBlob, Method: http.MethodGet, Path: "/api/blobs/containers"}, &out))
	require.NoError(t, router.Do(ctx, ports.RequestEnvelope{Service: domain.ServiceReports, Method: http.MethodGet, Path: "/api/reports"}, &out))

	assert.Len(t, blob.Calls(), 1)
	assert.Len(t, reports.Calls(), 1)
	assert.Empty(t, data.Calls())
	assert.Equal(t, "/api/blobs/containers", blob.Calls()[0].Path)
	assert.Equal(t, "/api/reports", reports.Calls()[0].Path)
}

func TestChangingOneAddressLeavesOthersUntouched(t *testing.T) {
	first := newFakeBackend(t, http.StatusOK, `[]`)
	second := newFakeBackend(t, http.StatusOK, `[]`)
	shared := newFakeBackend(t, http.StatusOK, `[]`)

	before := newTestRouter(t, first.server.URL, shared.server.URL, shared.server.URL)
	after := newTestRouter(t, second.server.URL, shared.server.URL, shared.server.URL)

	assert.Equal(t, first.server.URL, before.BaseURL(domain.ServiceBlob))
	assert.Equal(t, second.server.URL, after.BaseURL(domain.ServiceBlob))
	for _, service := range []domain.ServiceID{domain.ServiceReports, domain.ServiceData} {
		assert.Equal(t, before.BaseURL(service), after.BaseURL(service))
	}

	var out []any
	require.NoError(t, after.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceData, Method: http.MethodGet, Path: "/api/data"}, &out))
	assert.Len(t, shared.Calls(), 1)
	assert.Empty(t, first.Calls())
	assert.Empty(t, second.Calls())
}

func TestNon2xxYieldsUpstreamErrorWithExactStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		backend := newFakeBackend(t, status, `{"error":"ignored"}`)
		router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)

		var out map[string]any
		err := router.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceReports, Method: http.MethodGet, Path: "/api/reports"}, &out)
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrUpstream)

		upstreamErr, ok := domain.AsUpstreamError(err)
		require.True(t, ok)
		assert.Equal(t, status, upstreamErr.StatusCode)
		assert.Equal(t, domain.ServiceReports, upstreamErr.Service)
		assert.Nil(t, out, "error bodies are never decoded")
	}
}

func TestJSONBodyRoundTripsUnchanged(t *testing.T) {
	var captured []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(captured)
	}))
	defer server.Close()
	router := newTestRouter(t, server.URL, server.URL, server.URL)

	in := domain.DataEntityInput{
		Name:        "orders",
		Description: "daily orders",
		Category:    "sales",
		Metadata:    json.RawMessage(`{"owner":"team-a","tags":["x","y"]}`),
	}
	var out domain.DataEntityInput
	err := router.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceData, Method: http.MethodPost, Path: "/api/data", Body: in}, &out)
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Description, out.Description)
	assert.Equal(t, in.Category, out.Category)
	assert.JSONEq(t, string(in.Metadata), string(out.Metadata))
	assert.JSONEq(t, `{"name":"orders","description":"daily orders","category":"sales","metadata":{"owner":"team-a","tags":["x","y"]}}`, string(captured))
}

func TestGetAndDeleteOmitBodyAndGetIsNonCacheable(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"id":1}`)
	router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)
	ctx := context.Background()

	var got map[string]any
	require.NoError(t, router.Do(ctx, ports.RequestEnvelope{Service: domain.ServiceData, Method: http.MethodGet, Path: "/api/data/1", Body: map[string]any{"ignored": true}}, &got))
	require.NoError(t, router.Do(ctx, ports.RequestEnvelope{Service: domain.ServiceData, Method: http.MethodDelete, Path: "/api/data/1", Body: map[string]any{"ignored": true}}, nil))

	calls := backend.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].Body)
	assert.Contains(t, calls[0].CacheCtl, "no-store")
	assert.Equal(t, http.MethodDelete, calls[1].Method)
	assert.Empty(t, calls[1].Body)
	assert.Empty(t, calls[1].CacheCtl)
}

func TestDeleteYieldsNoValueEvenWithBody(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{"deleted":true}`)
	router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)

	out := map[string]any{}
	require.NoError(t, router.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceBlob, Method: http.MethodDelete, Path: "/api/blobs/c/b"}, &out))
	assert.Empty(t, out)
}

func TestUnreachableBackendYieldsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	deadURL := server.URL
	server.Close()

	observer := &recordingObserver{}
	router, err := NewRouter(Config{
		BaseURLs: map[domain.ServiceID]string{
			domain.ServiceBlob:    deadURL,
			domain.ServiceReports: deadURL,
			domain.ServiceData:    deadURL,
		},
		Timeout:  time.Second,
		Observer: observer,
	})
	require.NoError(t, err)

	err = router.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceBlob, Method: http.MethodGet, Path: "/api/blobs/containers"}, nil)
	upstreamErr, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.True(t, upstreamErr.Unreachable())
	assert.Equal(t, "unreachable", upstreamErr.Status())
	assert.Equal(t, domain.ServiceBlob, upstreamErr.Service)

	require.Len(t, observer.calls, 1)
	assert.Equal(t, domain.UpstreamUnreachable, observer.calls[0].status)
	assert.Error(t, observer.calls[0].err)
}

func TestSlowBackendIsCutOffByPerCallTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	router, err := NewRouter(Config{
		BaseURLs: map[domain.ServiceID]string{
			domain.ServiceBlob:    server.URL,
			domain.ServiceReports: server.URL,
			domain.ServiceData:    server.URL,
		},
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	err = router.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceReports, Method: http.MethodGet, Path: "/api/reports"}, nil)
	upstreamErr, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.True(t, upstreamErr.Unreachable())
	assert.Equal(t, "timeout", upstreamErr.Reason)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCanceledCallerContextAbandonsCall(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `[]`)
	router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := router.Do(ctx, ports.RequestEnvelope{Service: domain.ServiceData, Method: http.MethodGet, Path: "/api/data"}, nil)
	upstreamErr, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, "canceled", upstreamErr.Reason)
	assert.Empty(t, backend.Calls())
}

func TestMalformedSuccessBodyIsUpstreamError(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `{not json`)
	router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)

	var out domain.Report
	err := router.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceReports, Method: http.MethodGet, Path: "/api/reports/1"}, &out)
	upstreamErr, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, upstreamErr.StatusCode)
	assert.Equal(t, "invalid response body", upstreamErr.Reason)
}

func TestUploadForwardsMultipartPayloadVerbatim(t *testing.T) {
	backend := newFakeBackend(t, http.StatusCreated, `{"blobName":"a.txt","containerName":"docs","url":"http://blob/docs/a.txt","contentLength":5}`)
	router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)

	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)
	part, err := writer.CreateFormFile("file", "a.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	sent := append([]byte(nil), payload.Bytes()...)

	var out domain.UploadResponse
	err = router.Upload(context.Background(), ports.MultipartEnvelope{
		Service:     domain.ServiceBlob,
		Path:        "/api/blobs/docs",
		ContentType: writer.FormDataContentType(),
		Payload:     &payload,
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", out.BlobName)
	assert.EqualValues(t, 5, out.ContentLength)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, writer.FormDataContentType(), calls[0].ContentType)
	assert.Equal(t, sent, calls[0].Body)
}

func TestUploadFailureIsUpstreamError(t *testing.T) {
	backend := newFakeBackend(t, http.StatusRequestEntityTooLarge, ``)
	router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)

	err := router.Upload(context.Background(), ports.MultipartEnvelope{
		Service:     domain.ServiceBlob,
		Path:        "/api/blobs/docs",
		ContentType: "multipart/form-data; boundary=x",
		Payload:     bytes.NewReader([]byte("--x--")),
	}, nil)
	upstreamErr, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, upstreamErr.StatusCode)

	err = router.Upload(context.Background(), ports.MultipartEnvelope{Service: domain.ServiceBlob, Path: "/api/blobs/docs"}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOversizedUploadBodyIsNotBlamedOnBackend(t *testing.T) {
	backend := newFakeBackend(t, http.StatusCreated, `{}`)
	observer := &recordingObserver{}
	router, err := NewRouter(Config{
		BaseURLs: map[domain.ServiceID]string{
			domain.ServiceBlob:    backend.server.URL,
			domain.ServiceReports: backend.server.URL,
			domain.ServiceData:    backend.server.URL,
		},
		Timeout:  2 * time.Second,
		Observer: observer,
	})
	require.NoError(t, err)

	capped := http.MaxBytesReader(nil, io.NopCloser(bytes.NewReader(bytes.Repeat([]byte("x"), 4096))), 16)
	err = router.Upload(context.Background(), ports.MultipartEnvelope{
		Service:     domain.ServiceBlob,
		Path:        "/api/blobs/docs",
		ContentType: "multipart/form-data; boundary=x",
		Payload:     capped,
	}, nil)
	require.ErrorIs(t, err, domain.ErrPayloadTooLarge)
	_, ok := domain.AsUpstreamError(err)
	assert.False(t, ok)
	assert.Empty(t, observer.calls)
}

func TestUnknownServiceIsRejectedAtCallTime(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, `[]`)
	router := newTestRouter(t, backend.server.URL, backend.server.URL, backend.server.URL)

	err := router.Do(context.Background(), ports.RequestEnvelope{Service: domain.ServiceID("billing"), Method: http.MethodGet, Path: "/x"}, nil)
	require.ErrorIs(t, err, domain.ErrUnknownService)
	assert.Empty(t, backend.Calls())
}
