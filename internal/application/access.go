package application

import (
	"context"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

// RequireRole is the hard gate: the request must carry an identity holding role.
func RequireRole(ctx context.Context, role domain.Role) (domain.Identity, error) {
	return RequireAnyRole(ctx, role)
}

// RequireAnyRole passes when the identity holds any of allowed. With no roles
// listed it only requires an identity.
func RequireAnyRole(ctx context.Context, allowed ...domain.Role) (domain.Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return domain.Identity{}, domain.ErrAuthenticationRequired
	}
	if len(allowed) == 0 || identity.HasAnyRole(allowed...) {
		return identity, nil
	}
	return domain.Identity{}, &domain.AuthorizationError{
		Username: identity.Username,
		Role:     allowed[0],
		Allowed:  append([]domain.Role(nil), allowed...),
	}
}

// Allowed reports whether the soft gate would show content guarded by allowed.
func Allowed(ctx context.Context, allowed ...domain.Role) bool {
	identity, ok := IdentityFromContext(ctx)
	return ok && identity.HasAnyRole(allowed...)
}

func HasRole(ctx context.Context, role domain.Role) bool {
	return Allowed(ctx, role)
}

// Guard is the soft gate. It never fails: a caller outside allowed gets
// fallback, or the standard access-denied placeholder when fallback is nil.
func Guard(ctx context.Context, allowed []domain.Role, protected, fallback any) any {
	if Allowed(ctx, allowed...) {
		return protected
	}
	if fallback == nil {
		return domain.AccessDeniedPlaceholder()
	}
	return fallback
}
