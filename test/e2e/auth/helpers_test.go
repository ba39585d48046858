//go:build e2e

package auth_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for token service end-to-end tests.
 * This includes container setup, login helpers and assertions.
 */

const (
	testImageName = "dashauth-test:latest"

	adminEmail    = "admin@dash.local"
	adminPassword = "e2e-admin-password-1"

	accessSecret  = "e2e-access-secret-0123456789abcdef"
	refreshSecret = "e2e-refresh-secret-0123456789abcdef"
)

// TestMain builds the Docker image once before all tests and removes it
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building token service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up token service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

func baseEnv() map[string]string {
	return map[string]string{
		"ACCESS_TOKEN_SECRET":     accessSecret,
		"REFRESH_TOKEN_SECRET":    refreshSecret,
		"ACCESS_TOKEN_EXPIRY":     "900",
		"REFRESH_TOKEN_EXPIRY":    "7d",
		"DASHAUTH_ADMIN_EMAIL":    adminEmail,
		"DASHAUTH_ADMIN_PASSWORD": adminPassword,
		"DASHAUTH_MFA_ISSUER":     "dashauth-e2e",
		"ENV":                     "test",
		"LOG_LEVEL":               "info",
		"LOG_FORMAT":              "json",
	}
}

// setupAuthContainer starts the service with relaxed rate limits, since most
// tests make many rapid requests.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()

	env := baseEnv()
	env["RATELIMIT_STRICT_REQUESTS"] = "1000"
	env["RATELIMIT_STRICT_WINDOW_SEC"] = "60"
	env["RATELIMIT_STRICT_BURST"] = "1000"
	env["RATELIMIT_MODERATE_REQUESTS"] = "1000"
	env["RATELIMIT_MODERATE_BURST"] = "1000"

	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits keeps the production limits and is
// only meant for tests of the limiter itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// loginAdmin logs in as the seeded admin and returns the session and its store.
func loginAdmin(t *testing.T, client *authsdk.SDKClient) (*authsdk.Session, *authsdk.MemoryCredentialStore) {
	t.Helper()
	return loginAs(t, client, adminEmail, adminPassword)
}

func loginAs(t *testing.T, client *authsdk.SDKClient, email, password string) (*authsdk.Session, *authsdk.MemoryCredentialStore) {
	t.Helper()

	store := authsdk.NewMemoryCredentialStore()
	session, err := client.LoginSession(t.Context(), store, authsdk.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err, "login as %s should succeed", email)
	require.NotNil(t, session)

	return session, store
}

// createUser creates a user through the admin session.
func createUser(t *testing.T, admin *authsdk.Session, email, password, role string) *authsdk.UserInfo {
	t.Helper()

	user, err := admin.CreateUser(t.Context(), authsdk.CreateUserRequest{
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	return user
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "refresh token should not be empty")
	require.Equal(t, authsdk.TokenType, resp.TokenType)
	require.Positive(t, resp.ExpiresIn)
}

// assertAPIError checks err is an *APIError with the given code.
func assertAPIError(t *testing.T, err error, want *authsdk.APIError) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, want, "got %v", err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
