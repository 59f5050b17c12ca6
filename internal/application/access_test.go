package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/dashboard-bff/internal/domain"
)

func TestResolveIdentity(t *testing.T) {
	identity, ok := ResolveIdentity("alice", "viewer, editor,,auditor")
	require.True(t, ok)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, []domain.Role{domain.RoleViewer, domain.RoleEditor, "auditor"}, identity.Roles)

	identity, ok = ResolveIdentity("bob", "")
	require.True(t, ok)
	assert.Empty(t, identity.Roles)

	_, ok = ResolveIdentity("", "admin")
	assert.False(t, ok)
	_, ok = ResolveIdentity("   ", "admin")
	assert.False(t, ok)
}

func TestIdentityInContextCannotBeMutated(t *testing.T) {
	roles := []domain.Role{domain.RoleViewer}
	ctx := WithIdentity(context.Background(), domain.Identity{Username: "alice", Roles: roles})
	roles[0] = domain.RoleAdmin

	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	got.Roles[0] = domain.RoleAdmin

	again, _ := IdentityFromContext(ctx)
	assert.Equal(t, []domain.Role{domain.RoleViewer}, again.Roles)
	assert.False(t, HasRole(ctx, domain.RoleAdmin))
}

func TestRequireRoleSucceedsIffRoleHeld(t *testing.T) {
	held := []domain.Role{domain.RoleViewer, domain.RoleEditor}
	ctx := as("alice", held...)

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleEditor, domain.RoleViewer, "auditor"} {
		identity, err := RequireRole(ctx, role)
		if role == domain.RoleViewer || role == domain.RoleEditor {
			require.NoError(t, err, role)
			assert.Equal(t, "alice", identity.Username)
			continue
		}
		require.Error(t, err, role)
		var authzErr *domain.AuthorizationError
		require.True(t, errors.As(err, &authzErr))
		assert.Equal(t, role, authzErr.Role)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.NotErrorIs(t, err, domain.ErrAuthenticationRequired)
	}
}

func TestRequireRoleWithoutIdentityIsAuthenticationError(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleEditor, domain.RoleViewer} {
		_, err := RequireRole(context.Background(), role)
		assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
		assert.NotErrorIs(t, err, domain.ErrForbidden)
	}
	_, err := RequireAnyRole(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestRequireAnyRoleNamesAllowedRoles(t *testing.T) {
	_, err := RequireAnyRole(as("carol", domain.RoleViewer), domain.RoleEditor, domain.RoleAdmin)
	var authzErr *domain.AuthorizationError
	require.True(t, errors.As(err, &authzErr))
	assert.Equal(t, domain.RoleEditor, authzErr.Role)
	assert.Equal(t, []domain.Role{domain.RoleEditor, domain.RoleAdmin}, authzErr.Allowed)
	assert.Contains(t, err.Error(), "editor, admin")
}

func TestGuardAnyOverlapGrants(t *testing.T) {
	allowed := []domain.Role{domain.RoleAdmin, domain.RoleEditor}
	cases := []struct {
		roles []domain.Role
		want  any
	}{
		{roles: []domain.Role{domain.RoleAdmin}, want: "P"},
		{roles: []domain.Role{domain.RoleEditor, domain.RoleViewer}, want: "P"},
		{roles: []domain.Role{domain.RoleViewer}, want: "F"},
		{roles: []domain.Role{"Admin", "auditor"}, want: "F"},
		{roles: nil, want: "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Guard(as("u", tc.roles...), allowed, "P", "F"), tc.roles)
	}
}

func TestGuardWithoutFallbackUsesPlaceholder(t *testing.T) {
	got := Guard(as("dave", domain.RoleViewer), []domain.Role{domain.RoleAdmin}, "secret", nil)
	placeholder, ok := got.(domain.AccessDenied)
	require.True(t, ok)
	assert.True(t, placeholder.Denied)
	assert.Equal(t, domain.AccessDeniedMessage, placeholder.Message)

	assert.Equal(t, domain.AccessDeniedPlaceholder(), Guard(context.Background(), []domain.Role{domain.RoleViewer}, "secret", nil))
}

func TestScenarioViewerAgainstAdminGate(t *testing.T) {
	identity, ok := ResolveIdentity("alice", "viewer")
	require.True(t, ok)
	ctx := WithIdentity(context.Background(), identity)

	_, err := RequireRole(ctx, domain.RoleAdmin)
	var authzErr *domain.AuthorizationError
	require.True(t, errors.As(err, &authzErr))
	assert.Equal(t, domain.RoleAdmin, authzErr.Role)

	assert.Equal(t, "VIEW", Guard(ctx, []domain.Role{domain.RoleAdmin, domain.RoleEditor}, "EDIT", "VIEW"))
}

func TestScenarioAnonymousRequest(t *testing.T) {
	_, ok := ResolveIdentity("", "")
	assert.False(t, ok)

	ctx := context.Background()
	_, present := IdentityFromContext(ctx)
	assert.False(t, present)
	assert.Equal(t, "Y", Guard(ctx, []domain.Role{domain.RoleViewer}, "X", "Y"))
}
