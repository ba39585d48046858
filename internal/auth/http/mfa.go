package http

import (
	"net/http"

	"github.com/aussiebroadwan/dashauth/internal/auth/service"
	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/aussiebroadwan/dashauth/pkg/httpx"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
)

// MFAHandler handles all MFA-related endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/enroll
//
//	@Summary		Enroll in TOTP MFA
//	@Description	Generates a TOTP secret for the authenticated user. Login keeps working without a code until the secret is verified.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFAEnrollResponse	"TOTP secret and otpauth URL"
//	@Failure		401	{object}	httpx.ErrorBody				"Invalid or missing access token"
//	@Failure		409	{object}	httpx.ErrorBody				"MFA already enabled"
//	@Router			/v1/mfa/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	enrollment, err := h.MFAService.EnrollTOTP(ctx, userID)
	if err != nil {
		writeServiceError(w, log, "failed to enroll TOTP", err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAEnrollResponse{
		Secret:  enrollment.Secret,
		URL:     enrollment.URL,
		Issuer:  enrollment.Issuer,
		Account: enrollment.Account,
	})
}

// HandleVerify handles POST /v1/mfa/verify
//
//	@Summary		Verify TOTP code and enable MFA
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFAVerifyRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.UserInfo			"User with MFA enabled"
//	@Failure		401		{object}	httpx.ErrorBody				"Invalid code or access token"
//	@Failure		409		{object}	httpx.ErrorBody				"Not enrolled or already enabled"
//	@Router			/v1/mfa/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	var req authsdk.MFAVerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WithDescription("code is required").WriteError(w)
		return
	}

	user, err := h.MFAService.VerifyTOTP(ctx, userID, req.Code)
	if err != nil {
		writeServiceError(w, log, "failed to verify TOTP", err)
		return
	}

	log.Info("MFA enabled", "user_id", userID)
	httpx.WriteJSON(w, http.StatusOK, toUserInfo(user))
}

// HandleRemove handles DELETE /v1/mfa
//
//	@Summary		Disable MFA
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.MFAVerifyRequest	true	"Current TOTP code"
//	@Success		204		"MFA disabled"
//	@Failure		401		{object}	httpx.ErrorBody	"Invalid code or access token"
//	@Failure		409		{object}	httpx.ErrorBody	"MFA not enabled"
//	@Router			/v1/mfa [delete].
func (h *MFAHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	var req authsdk.MFAVerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WithDescription("code is required").WriteError(w)
		return
	}

	if err := h.MFAService.RemoveMFA(ctx, userID, req.Code); err != nil {
		writeServiceError(w, log, "failed to remove MFA", err)
		return
	}

	log.Info("MFA disabled", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
