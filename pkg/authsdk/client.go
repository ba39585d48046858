package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the dashboard token service. It covers the
// unauthenticated endpoints and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges email, password and an optional one-time code for a token pair.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var tokenResp TokenResponse
	if err := c.postJSON(ctx, "/v1/auth/login", req, &tokenResp); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// Refresh exchanges a refresh token for a new pair.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var tokenResp TokenResponse
	if err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &tokenResp); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// Logout revokes the session behind refreshToken.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	var empty struct{}
	return c.postJSON(ctx, "/v1/auth/logout", RefreshRequest{RefreshToken: refreshToken}, &empty)
}

// GetLiveness checks that the service process is up.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks that the service can serve traffic.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// LoginSession logs in and persists the resulting credentials into store. A
// nil store gives a session that keeps its tokens in memory only.
func (c *SDKClient) LoginSession(ctx context.Context, store CredentialStore, req LoginRequest) (*Session, error) {
	tokenResp, err := c.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	if store == nil {
		return newSession(c, nil, tokenResp.AccessToken, tokenResp.RefreshToken), nil
	}

	loginData, err := json.Marshal(LoginData{
		Email:    req.Email,
		BaseURL:  c.BaseURL,
		LoggedIn: time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode login data: %w", err)
	}

	if err := SaveBundle(ctx, store, Bundle{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		LoginData:    string(loginData),
		UserData:     userDataJSON(tokenResp.User),
	}); err != nil {
		return nil, err
	}

	return newSession(c, store, tokenResp.AccessToken, tokenResp.RefreshToken), nil
}

// ResumeSession builds a Session from previously stored credentials. Nothing
// is sent to the server until the first request.
func (c *SDKClient) ResumeSession(ctx context.Context, store CredentialStore) (*Session, error) {
	b, err := LoadBundle(ctx, store)
	if err != nil {
		return nil, err
	}
	if b.RefreshToken == "" {
		return nil, ErrNoCredentials
	}
	return newSession(c, store, b.AccessToken, b.RefreshToken), nil
}
