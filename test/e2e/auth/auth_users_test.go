//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestUserManagement covers admin user creation, role changes and the role
// gate on admin endpoints.
func TestUserManagement(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	admin, _ := loginAdmin(t, client)

	viewer := createUser(t, admin, "viewer@dash.local", "viewer-password-1", "viewer")
	require.Equal(t, "viewer", viewer.Role)

	t.Run("duplicate email is refused", func(t *testing.T) {
		_, err := admin.CreateUser(ctx, authsdk.CreateUserRequest{
			Email:    "Viewer@Dash.local",
			Password: "another-password-1",
		})
		assertAPIError(t, err, authsdk.ErrEmailTaken)
	})

	t.Run("viewer cannot list users", func(t *testing.T) {
		session, _ := loginAs(t, client, "viewer@dash.local", "viewer-password-1")
		_, err := session.ListUsers(ctx)
		assertAPIError(t, err, authsdk.ErrInsufficientRole)
	})

	t.Run("promotion applies on next refresh", func(t *testing.T) {
		pair, err := client.Login(ctx, authsdk.LoginRequest{Email: "viewer@dash.local", Password: "viewer-password-1"})
		require.NoError(t, err)
		require.Equal(t, "viewer", pair.User.Role)

		updated, err := admin.SetRole(ctx, viewer.ID, "operator")
		require.NoError(t, err)
		require.Equal(t, "operator", updated.Role)

		refreshed, err := client.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, "operator", refreshed.User.Role)
	})

	t.Run("list includes both users", func(t *testing.T) {
		users, err := admin.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := admin.SetRole(ctx, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZZ", "viewer")
		assertAPIError(t, err, authsdk.ErrNotFound)
	})
}

// TestChangePasswordRevokesSessions checks every session of the user is
// revoked once the password changes.
func TestChangePasswordRevokesSessions(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	admin, _ := loginAdmin(t, client)
	createUser(t, admin, "ops@dash.local", "ops-password-123", "operator")

	session, _ := loginAs(t, client, "ops@dash.local", "ops-password-123")
	other, err := client.Login(ctx, authsdk.LoginRequest{Email: "ops@dash.local", Password: "ops-password-123"})
	require.NoError(t, err)

	err = session.ChangePassword(ctx, "wrong-password", "ops-password-456")
	assertAPIError(t, err, authsdk.ErrInvalidCredentials)

	require.NoError(t, session.ChangePassword(ctx, "ops-password-123", "ops-password-456"))

	_, err = client.Refresh(ctx, other.RefreshToken)
	assertAPIError(t, err, authsdk.ErrSessionRevoked)

	_, err = client.Login(ctx, authsdk.LoginRequest{Email: "ops@dash.local", Password: "ops-password-123"})
	assertAPIError(t, err, authsdk.ErrInvalidCredentials)

	_, err = client.Login(ctx, authsdk.LoginRequest{Email: "ops@dash.local", Password: "ops-password-456"})
	require.NoError(t, err)
}
