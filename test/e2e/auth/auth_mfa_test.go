//go:build e2e

package auth_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// TestMFAFlow enrolls TOTP, checks login then demands a code, and removes it.
func TestMFAFlow(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session, _ := loginAdmin(t, client)

	enroll, err := session.EnrollMFA(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.URL, "otpauth://totp/")
	require.Equal(t, "dashauth-e2e", enroll.Issuer)

	_, err = session.VerifyMFA(ctx, "000000")
	assertAPIError(t, err, authsdk.ErrInvalidOTP)

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)

	user, err := session.VerifyMFA(ctx, code)
	require.NoError(t, err)
	require.True(t, user.MFAEnabled)

	t.Run("login without code is refused", func(t *testing.T) {
		_, err := client.Login(ctx, authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
		assertAPIError(t, err, authsdk.ErrMFARequired)
	})

	t.Run("login with wrong code is refused", func(t *testing.T) {
		_, err := client.Login(ctx, authsdk.LoginRequest{Email: adminEmail, Password: adminPassword, OTP: "123456"})
		assertAPIError(t, err, authsdk.ErrInvalidOTP)
	})

	t.Run("login with code succeeds", func(t *testing.T) {
		code, err := totp.GenerateCode(enroll.Secret, time.Now())
		require.NoError(t, err)

		pair, err := client.Login(ctx, authsdk.LoginRequest{Email: adminEmail, Password: adminPassword, OTP: code})
		require.NoError(t, err)
		assertTokenResponse(t, pair)
		require.True(t, pair.User.MFAEnabled)
	})

	t.Run("enrolling again is refused", func(t *testing.T) {
		_, err := session.EnrollMFA(ctx)
		assertAPIError(t, err, authsdk.ErrMFAAlreadyEnabled)
	})

	t.Run("remove", func(t *testing.T) {
		code, err := totp.GenerateCode(enroll.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, session.RemoveMFA(ctx, code))

		pair, err := client.Login(ctx, authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
		require.NoError(t, err)
		require.False(t, pair.User.MFAEnabled)
	})
}
