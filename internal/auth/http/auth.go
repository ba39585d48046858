package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/dashauth/internal/auth/service"
	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/aussiebroadwan/dashauth/pkg/httpx"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
)

// AuthHandler serves login, refresh and logout.
type AuthHandler struct {
	TokenService *service.TokenService
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in
//	@Description	Exchanges email and password, plus a TOTP code once MFA is enabled, for an access and refresh token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse	"Token pair"
//	@Failure		400		{object}	httpx.ErrorBody			"Malformed request"
//	@Failure		401		{object}	httpx.ErrorBody			"Invalid credentials, mfa_required or invalid_otp"
//	@Failure		429		{object}	httpx.ErrorBody			"Rate limited"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WithDescription("email and password are required").WriteError(w)
		return
	}

	out, err := h.TokenService.Login(ctx, service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		OTP:        strings.TrimSpace(req.OTP),
		UserAgent:  r.UserAgent(),
		RemoteAddr: httpx.IPKeyExtractor(r),
	})
	if err != nil {
		writeServiceError(w, log, "login failed", err)
		return
	}

	h.writeTokens(w, out)
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Refresh tokens
//	@Description	Verifies the refresh token and issues a new pair for the same session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenResponse	"Token pair"
//	@Failure		400		{object}	httpx.ErrorBody			"Malformed request"
//	@Failure		401		{object}	httpx.ErrorBody			"invalid_refresh_token or session_revoked"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		authsdk.ErrInvalidRequest.WithDescription("refreshToken is required").WriteError(w)
		return
	}

	out, err := h.TokenService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeServiceError(w, log, "refresh failed", err)
		return
	}

	h.writeTokens(w, out)
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Revokes the session of the refresh token. Always succeeds for well-formed requests.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		"Empty object"
//	@Failure		400		{object}	httpx.ErrorBody	"Malformed request"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	if err := h.TokenService.Logout(ctx, req.RefreshToken); err != nil {
		writeServiceError(w, log, "logout failed", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

// writeTokens derives expiresIn from the stamped exp, which is truncated to
// whole seconds, so it never overstates the lifetime.
func (h *AuthHandler) writeTokens(w http.ResponseWriter, out *service.IssuedTokens) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		TokenType:    authsdk.TokenType,
		ExpiresIn:    max(int(time.Until(out.AccessExpiresAt).Seconds()), 0),
		User:         toUserInfo(out.User),
	})
}
