package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
	"github.com/aussiebroadwan/dashauth/internal/auth/service"
	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
)

// apiErrorFor maps service sentinels onto the wire errors. Unknown errors
// become server_error.
func apiErrorFor(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrInvalidRefresh):
		return authsdk.ErrInvalidRefreshToken
	case errors.Is(err, service.ErrSessionRevoked):
		return authsdk.ErrSessionRevoked
	case errors.Is(err, service.ErrMFARequired):
		return authsdk.ErrMFARequired
	case errors.Is(err, service.ErrInvalidOTP):
		return authsdk.ErrInvalidOTP
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		return authsdk.ErrMFAAlreadyEnabled
	case errors.Is(err, service.ErrMFANotEnrolled):
		return authsdk.ErrMFANotEnrolled
	case errors.Is(err, service.ErrMFANotEnabled):
		return authsdk.ErrMFANotEnabled
	case errors.Is(err, service.ErrEmailTaken):
		return authsdk.ErrEmailTaken
	case errors.Is(err, service.ErrUserNotFound):
		return authsdk.ErrNotFound
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrWeakPassword):
		return authsdk.ErrInvalidRequest.WithDescription(err.Error())
	default:
		return authsdk.ErrServerError
	}
}

// writeServiceError logs and writes err. Server errors are logged at error
// level, everything else is a client mistake.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	apiErr := apiErrorFor(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.Error(msg, "err", err)
	} else {
		log.Info(msg, "err", err)
	}
	apiErr.WriteError(w)
}

func toUserInfo(u domain.User) authsdk.UserInfo {
	return authsdk.UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		MFAEnabled:  u.HasMFA(),
	}
}
