package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthenticationRequired is returned by the hard gate when no identity
	// reached the dashboard. Adapters render it as "log in".
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrForbidden is the sentinel behind AuthorizationError. Adapters render it
	// as "forbidden", never as "log in".
	ErrForbidden      = errors.New("forbidden")
	ErrUpstream       = errors.New("upstream error")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownService = errors.New("unknown service")
	// ErrPayloadTooLarge is returned when an inbound body outgrew its cap
	// before the backend saw all of it.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// UpstreamUnreachable is the StatusCode recorded when no HTTP response was received.
const UpstreamUnreachable = 0

// UpstreamError normalizes every failed outbound call. StatusCode is the
// backend's HTTP status, or UpstreamUnreachable for transport failures.
type UpstreamError struct {
	Service    ServiceID
	Method     string
	Path       string
	StatusCode int
	Reason     string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == UpstreamUnreachable {
		return fmt.Sprintf("%s service unreachable: %s %s: %s", e.Service, e.Method, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s service returned %d %s: %s %s", e.Service, e.StatusCode, e.Reason, e.Method, e.Path)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Unreachable reports whether the backend never answered.
func (e *UpstreamError) Unreachable() bool { return e.StatusCode == UpstreamUnreachable }

// NotFound is true when the backend answered 404.
func (e *UpstreamError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Status is the status label used in logs and views: the numeric code or "unreachable".
func (e *UpstreamError) Status() string {
	if e.Unreachable() {
		return "unreachable"
	}
	return fmt.Sprintf("%d", e.StatusCode)
}

// AuthorizationError names the role the caller was missing. When the gate
// accepted any of several roles, Allowed lists them and Role is the first.
type AuthorizationError struct {
	Username string
	Role     Role
	Allowed  []Role
}

func (e *AuthorizationError) Error() string {
	if len(e.Allowed) > 1 {
		names := make([]string, 0, len(e.Allowed))
		for _, r := range e.Allowed {
			names = append(names, string(r))
		}
		return fmt.Sprintf("one of roles %s required", strings.Join(names, ", "))
	}
	return fmt.Sprintf("role %q required", string(e.Role))
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrForbidden }

// AsUpstreamError unwraps err into an *UpstreamError when possible.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}
	return nil, false
}
