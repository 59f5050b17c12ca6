package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/dashboard-bff/internal/application"
	"github.com/viralforge/dashboard-bff/internal/domain"
)

const defaultMaxUploadBytes = 64 << 20

type cachedValue struct {
	Key   string `json:"key"`
	Found bool   `json:"found"`
	Value any    `json:"value,omitempty"`
}

// authorize writes the 401/403 envelope and reports false when the caller may
// not proceed. With no roles any resolved identity passes.
func authorize(w http.ResponseWriter, r *http.Request, allowed ...domain.Role) bool {
	if _, err := application.RequireAnyRole(r.Context(), allowed...); err != nil {
		writeDomainError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, err := application.RequireAnyRole(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, identity)
}

func (h *Handler) listContainers(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	containers, err := h.service.ListContainers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, containers)
}

func (h *Handler) listBlobs(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	blobs, err := h.service.ListBlobs(r.Context(), pathParam(r, "container"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, blobs)
}

func (h *Handler) getBlobMetadata(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	meta, err := h.service.GetBlobMetadata(r.Context(), pathParam(r, "container"), pathParam(r, "blob"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, meta)
}

// uploadBlob streams the caller's multipart body to the blob service as-is.
func (h *Handler) uploadBlob(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, application.WriterRoles()...) {
		return
	}
	contentType := r.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" || params["boundary"] == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "multipart/form-data body with boundary required", requestIDFromContext(r.Context()))
		return
	}
	resp, err := h.service.UploadBlob(r.Context(), pathParam(r, "container"), application.UploadInput{
		ContentType: contentType,
		Payload:     http.MaxBytesReader(w, r.Body, h.maxUploadBytes),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, resp)
}

func (h *Handler) deleteBlob(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, application.AdminRoles()...) {
		return
	}
	if err := h.service.DeleteBlob(r.Context(), pathParam(r, "container"), pathParam(r, "blob")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	result, err := h.service.ListData(r.Context(), page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) searchData(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	result, err := h.service.SearchData(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) getData(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	entity, err := h.service.GetData(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, entity)
}

func (h *Handler) createData(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, application.WriterRoles()...) {
		return
	}
	var input domain.DataEntityInput
	if err := decodeBody(r, &input); err != nil {
		writeDomainError(w, r, err)
		return
	}
	entity, err := h.service.CreateData(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, entity)
}

func (h *Handler) updateData(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, application.WriterRoles()...) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var input domain.DataEntityInput
	if err := decodeBody(r, &input); err != nil {
		writeDomainError(w, r, err)
		return
	}
	entity, err := h.service.UpdateData(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, entity)
}

func (h *Handler) deleteData(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, application.AdminRoles()...) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.service.DeleteData(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, reports)
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	report, err := h.service.GetReport(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

func (h *Handler) getReportStatus(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	status, err := h.service.GetReportStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, status)
}

func (h *Handler) generateReport(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, application.WriterRoles()...) {
		return
	}
	var req domain.GenerateReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	report, err := h.service.GenerateReport(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, report)
}

func (h *Handler) cachedReportStatus(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	status, found := h.service.CachedReportStatus(r.Context(), id)
	out := cachedValue{Key: fmt.Sprintf("report:status:%d", id), Found: found}
	if found {
		out.Value = status
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) cachedBlobList(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	container := pathParam(r, "container")
	blobs, found := h.service.CachedBlobList(r.Context(), container)
	out := cachedValue{Key: "blob:list:" + container, Found: found}
	if found {
		out.Value = blobs
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) cachedDataEntity(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	entity, found := h.service.CachedDataEntity(r.Context(), id)
	out := cachedValue{Key: fmt.Sprintf("data:%d", id), Found: found}
	if found {
		out.Value = entity
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) cachedHash(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, application.AdminRoles()...) {
		return
	}
	key := pathParam(r, "key")
	fields, found, err := h.service.CachedHash(r.Context(), key)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := cachedValue{Key: key, Found: found}
	if found {
		out.Value = fields
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Overview(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) reportsView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ReportsView(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) dataView(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := h.service.DataView(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) blobsView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.BlobsView(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) probeServices(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ProbeServices(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, results)
}

// pathParam returns the decoded value of a route parameter. chi matches on the
// raw path when the request carried escaped slashes.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", domain.ErrInvalidInput)
	}
	return id, nil
}

// pageRequest rejects only malformed numbers. Out-of-range values fall back to
// the listing defaults downstream.
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	query := r.URL.Query()
	page := domain.PageRequest{Page: domain.DefaultPage, Size: domain.DefaultPageSize}
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.PageRequest{}, fmt.Errorf("%w: page must be an integer", domain.ErrInvalidInput)
		}
		page.Page = n
	}
	if raw := query.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.PageRequest{}, fmt.Errorf("%w: size must be an integer", domain.ErrInvalidInput)
		}
		page.Size = n
	}
	return page.WithDefaults(), nil
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid json body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
