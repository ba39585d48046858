package http

import (
	"net/http"

	"github.com/aussiebroadwan/dashauth/internal/auth/service"
	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/aussiebroadwan/dashauth/pkg/httpx"
	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
)

// MeHandler godoc
//
//	@Summary		Current identity
//	@Description	Returns the identity claims of the presented access token.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse	"Caller claims"
//	@Failure		401	{object}	httpx.ErrorBody		"Invalid or missing access token"
//	@Router			/v1/me [get].
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpx.ClaimsFromContext(r.Context())
		if !ok {
			authsdk.ErrInvalidToken.WriteError(w)
			return
		}

		exp, _ := claims.ExpiresAt()
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
			ID:        claims.String(jwtx.ClaimUserID),
			Email:     claims.String(jwtx.ClaimEmail),
			Role:      claims.String(jwtx.ClaimRole),
			SessionID: claims.String(jwtx.ClaimSessionID),
			ExpiresAt: exp.Unix(),
		})
	}
}

// PasswordHandler serves POST /v1/me/password.
type PasswordHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Change password
//	@Description	Replaces the caller's password and revokes all of the caller's sessions.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204		"Password changed"
//	@Failure		400		{object}	httpx.ErrorBody	"Password too short"
//	@Failure		401		{object}	httpx.ErrorBody	"Wrong current password"
//	@Router			/v1/me/password [post].
func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	userID := httpx.UserIDFromContext(ctx)
	if err := h.UserService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, log, "password change failed", err)
		return
	}

	log.Info("password changed", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
