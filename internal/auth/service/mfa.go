package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
	"github.com/aussiebroadwan/dashauth/internal/auth/store"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrMFANotEnabled     = errors.New("MFA not enabled for this user")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this user")
	ErrMFANotEnrolled    = errors.New("MFA not enrolled")
)

type MFAService struct {
	Store  store.Store
	Issuer string // Issuer name shown by authenticator apps
}

// EnrollTOTP generates a TOTP secret for the user. MFA is not enforced until
// VerifyTOTP accepts a code; enrolling again replaces a pending secret.
func (s *MFAService) EnrollTOTP(ctx context.Context, userID string) (domain.MFAEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to load user: %w", err)
	}
	if user.HasMFA() {
		return domain.MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}

	return domain.MFAEnrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: user.Email,
	}, nil
}

// VerifyTOTP checks a code against the pending secret and enables MFA.
func (s *MFAService) VerifyTOTP(ctx context.Context, userID, code string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if user.MFASecret == nil || *user.MFASecret == "" {
		return domain.User{}, ErrMFANotEnrolled
	}
	if user.HasMFA() {
		return domain.User{}, ErrMFAAlreadyEnabled
	}
	if !totp.Validate(code, *user.MFASecret) {
		return domain.User{}, ErrInvalidOTP
	}

	if err := s.Store.Users().EnableMFA(ctx, userID); err != nil {
		return domain.User{}, fmt.Errorf("failed to enable MFA: %w", err)
	}

	return s.Store.Users().GetUserByID(ctx, userID)
}

// RemoveMFA disables MFA after checking a current code.
func (s *MFAService) RemoveMFA(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.HasMFA() {
		return ErrMFANotEnabled
	}
	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidOTP
	}

	return s.Store.Users().DisableMFA(ctx, userID)
}
