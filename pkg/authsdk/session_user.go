package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Me returns the identity claims of the session's access token. It is the
// cheapest authenticated call and the one the inspector probes with.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/me", nil)
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me, nil
}

// ListUsers lists dashboard users. Requires role admin.
func (s *Session) ListUsers(ctx context.Context) ([]UserInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/users", nil)
	if err != nil {
		return nil, err
	}

	var list UserListResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list.Users, nil
}

// EnrollMFA starts TOTP enrollment and returns the secret to load into an
// authenticator app.
func (s *Session) EnrollMFA(ctx context.Context) (*MFAEnrollResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/mfa/enroll", nil)
	if err != nil {
		return nil, err
	}

	var enroll MFAEnrollResponse
	if err := decodeJSON(resp, &enroll, http.StatusOK); err != nil {
		return nil, err
	}
	return &enroll, nil
}

// VerifyMFA confirms enrollment with a code from the authenticator. From then
// on login requires an OTP.
func (s *Session) VerifyMFA(ctx context.Context, code string) (*UserInfo, error) {
	body, err := json.Marshal(MFAVerifyRequest{Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/mfa/verify", body)
	if err != nil {
		return nil, err
	}

	var user UserInfo
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// RemoveMFA disables MFA after checking a current code.
func (s *Session) RemoveMFA(ctx context.Context, code string) error {
	body, err := json.Marshal(MFAVerifyRequest{Code: code})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/mfa", body)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ChangePassword replaces the caller's password. The server revokes every
// session of the user, this one included, so the session must log in again.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	body, err := json.Marshal(ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/me/password", body)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// CreateUser adds a dashboard user. Requires role admin.
func (s *Session) CreateUser(ctx context.Context, req CreateUserRequest) (*UserInfo, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/users", body)
	if err != nil {
		return nil, err
	}

	var user UserInfo
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetRole changes a user's role. Requires role admin.
func (s *Session) SetRole(ctx context.Context, userID, role string) (*UserInfo, error) {
	body, err := json.Marshal(SetRoleRequest{Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/users/"+url.PathEscape(userID)+"/role", body)
	if err != nil {
		return nil, err
	}

	var user UserInfo
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}
