package domain

import "strings"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Identity is the caller asserted by the upstream gateway for one request.
type Identity struct {
	Username string `json:"username"`
	Roles    []Role `json:"roles"`
}

// ParseRoles splits a comma-separated role header. Empty tokens are dropped,
// everything else is kept verbatim.
func ParseRoles(raw string) []Role {
	if raw == "" {
		return []Role{}
	}
	parts := strings.Split(raw, ",")
	out := make([]Role, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		out = append(out, Role(token))
	}
	return out
}

func (i Identity) HasRole(role Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole grants on any overlap with allowed.
func (i Identity) HasAnyRole(allowed ...Role) bool {
	for _, want := range allowed {
		if i.HasRole(want) {
			return true
		}
	}
	return false
}

// RoleNames is the log-friendly form of Roles.
func (i Identity) RoleNames() []string {
	out := make([]string, 0, len(i.Roles))
	for _, r := range i.Roles {
		out = append(out, string(r))
	}
	return out
}

// AccessDeniedMessage is the text of the standard soft-gate placeholder.
const AccessDeniedMessage = "You do not have permission to view this content."

// AccessDenied is rendered in place of guarded content the caller may not see.
type AccessDenied struct {
	Denied  bool   `json:"access_denied"`
	Message string `json:"message"`
}

func AccessDeniedPlaceholder() AccessDenied {
	return AccessDenied{Denied: true, Message: AccessDeniedMessage}
}
