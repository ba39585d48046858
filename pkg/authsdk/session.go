package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// refreshSkew makes the session refresh slightly before the access token
// actually expires.
const refreshSkew = 30 * time.Second

// Session is an authenticated session with automatic token refresh. Tokens
// are persisted to the CredentialStore after every refresh.
type Session struct {
	client *SDKClient
	store  CredentialStore

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time

	refreshes atomic.Int64
}

func newSession(client *SDKClient, store CredentialStore, accessToken, refreshToken string) *Session {
	s := &Session{
		client: client,
		store:  store,
	}
	s.setTokens(accessToken, refreshToken)
	return s
}

// setTokens must be called with mu held for writing, or before the session
// is shared.
func (s *Session) setTokens(accessToken, refreshToken string) {
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.expiresAt = tokenExpiry(accessToken).Add(-refreshSkew)
}

// getValidToken returns a valid access token, refreshing it first when its
// "exp" has passed.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if s.accessToken != "" && time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// forceRefresh refreshes unless another caller already replaced rejected.
func (s *Session) forceRefresh(ctx context.Context, rejected string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != rejected {
		return s.accessToken, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return fmt.Errorf("access token expired and no refresh token available")
	}

	tokenResp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	s.setTokens(tokenResp.AccessToken, tokenResp.RefreshToken)
	s.refreshes.Add(1)

	if s.store != nil {
		if err := SaveBundle(ctx, s.store, Bundle{
			AccessToken:  tokenResp.AccessToken,
			RefreshToken: tokenResp.RefreshToken,
			UserData:     userDataJSON(tokenResp.User),
		}); err != nil {
			return fmt.Errorf("failed to persist refreshed tokens: %w", err)
		}
	}
	return nil
}

// doAuthRequest sends an authenticated request. A 401 carrying a Bearer
// challenge means the access token itself was refused, which triggers one
// forced refresh and a single retry. Other 401s (wrong password, bad OTP)
// are returned as is.
func (s *Session) doAuthRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.doRequest(ctx, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil || resp.StatusCode != http.StatusUnauthorized || resp.Header.Get("WWW-Authenticate") == "" {
		return resp, err
	}
	_ = resp.Body.Close()

	token, err = s.forceRefresh(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.client.doRequest(ctx, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// Logout revokes the session on the server and clears the credential store.
// A session the server already considers invalid still gets cleared locally.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.accessToken, s.refreshToken, s.expiresAt = "", "", time.Time{}
	s.mu.Unlock()

	var errs []error
	if refreshToken != "" {
		var apiErr *APIError
		if err := s.client.Logout(ctx, refreshToken); err != nil && !errors.As(err, &apiErr) {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		errs = append(errs, ClearCredentials(ctx, s.store))
	}
	return errors.Join(errs...)
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// ExpiresAt returns the "exp" of the current access token.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiresAt.IsZero() {
		return time.Time{}
	}
	return s.expiresAt.Add(refreshSkew)
}

// Refreshes counts the refreshes this session performed.
func (s *Session) Refreshes() int64 {
	return s.refreshes.Load()
}
