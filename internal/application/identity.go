package application

import (
	"context"
	"strings"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

// Headers set by the authenticating gateway in front of the dashboard. They
// are trusted as-is.
const (
	HeaderUser  = "X-Auth-User"
	HeaderRoles = "X-Auth-Roles"
)

type identityKey struct{}

// ResolveIdentity builds the request identity from the gateway header values.
// A blank user means the request is anonymous, whatever the roles header says.
func ResolveIdentity(user, roles string) (domain.Identity, bool) {
	user = strings.TrimSpace(user)
	if user == "" {
		return domain.Identity{}, false
	}
	return domain.Identity{Username: user, Roles: domain.ParseRoles(roles)}, true
}

// WithIdentity attaches the identity for the rest of the request. The stored
// copy is never handed out, so gate decisions always see the same roles.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, cloneIdentity(identity))
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok {
		return domain.Identity{}, false
	}
	return cloneIdentity(identity), true
}

func cloneIdentity(identity domain.Identity) domain.Identity {
	roles := make([]domain.Role, len(identity.Roles))
	copy(roles, identity.Roles)
	return domain.Identity{Username: identity.Username, Roles: roles}
}
