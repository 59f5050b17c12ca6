package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

type apiError struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"status":  "success",
		"message": message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message, requestID string) {
	writeJSON(w, statusCode, apiError{
		Status:    "error",
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapDomainError(err)
	if status >= http.StatusInternalServerError {
		httpLogger().ErrorContext(r.Context(), "request failed",
			"operation", "http_request",
			"outcome", "failure",
			"request_id", requestIDFromContext(r.Context()),
			"error", err.Error(),
		)
	}
	writeError(w, status, code, message, requestIDFromContext(r.Context()))
}

// mapDomainError keeps "log in" (401) and "forbidden" (403) apart and never
// leaks backend response bodies.
func mapDomainError(err error) (int, string, string) {
	if upstreamErr, ok := domain.AsUpstreamError(err); ok {
		switch {
		case upstreamErr.Reason == "timeout":
			return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", string(upstreamErr.Service) + " service timed out"
		case upstreamErr.NotFound():
			return http.StatusNotFound, "NOT_FOUND", "resource not found"
		case upstreamErr.StatusCode == http.StatusBadRequest:
			return http.StatusBadRequest, "VALIDATION_ERROR", string(upstreamErr.Service) + " service rejected the request"
		default:
			return http.StatusBadGateway, "UPSTREAM_ERROR", upstreamErr.Error()
		}
	}
	var authzErr *domain.AuthorizationError
	switch {
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required"
	case errors.As(err, &authzErr):
		return http.StatusForbidden, "FORBIDDEN", authzErr.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error()
	case errors.Is(err, domain.ErrUnknownService):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
