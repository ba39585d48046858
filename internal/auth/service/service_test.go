package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
	"github.com/aussiebroadwan/dashauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/dashauth/pkg/cryptox"
	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery"

type fixture struct {
	store  *sqlite.Store
	issuer *jwtx.Issuer
	tokens *TokenService
	users  *UserService
	mfa    *MFAService
	admin  domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cryptox.SetPepper("service-test-pepper")

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	issuer, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		AccessSecret:  []byte("service-access"),
		RefreshSecret: []byte("service-refresh"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		store:  st,
		issuer: issuer,
		tokens: &TokenService{Store: st, Issuer: issuer},
		users:  &UserService{Store: st},
		mfa:    &MFAService{Store: st, Issuer: "Dashboard"},
	}

	f.admin, err = f.users.CreateUser(context.Background(), NewUser{
		Email:    "Ops@Example.com",
		Password: testPassword,
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) login(t *testing.T) *IssuedTokens {
	t.Helper()
	out, err := f.tokens.Login(context.Background(), LoginInput{Email: "ops@example.com", Password: testPassword})
	require.NoError(t, err)
	return out
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("issues a pair carrying the identity claims", func(t *testing.T) {
		out := f.login(t)
		require.NotEqual(t, out.AccessToken, out.RefreshToken)
		require.True(t, out.AccessExpiresAt.Before(out.RefreshExpiresAt))

		access, err := f.issuer.AccessVerifier().Verify(out.AccessToken)
		require.NoError(t, err)
		refresh, err := f.issuer.RefreshVerifier().Verify(out.RefreshToken)
		require.NoError(t, err)

		require.Equal(t, access.Identity(), refresh.Identity())
		require.Equal(t, f.admin.ID, access.String(jwtx.ClaimUserID))
		require.Equal(t, "ops@example.com", access.String(jwtx.ClaimEmail))
		require.Equal(t, domain.RoleAdmin, access.String(jwtx.ClaimRole))
		require.Equal(t, out.SessionID, access.String(jwtx.ClaimSessionID))

		session, err := f.store.Sessions().GetSession(ctx, out.SessionID)
		require.NoError(t, err)
		require.Equal(t, f.admin.ID, session.UserID)
		require.True(t, session.Active(time.Now()))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.tokens.Login(ctx, LoginInput{Email: "ops@example.com", Password: "nope"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.tokens.Login(ctx, LoginInput{Email: "who@example.com", Password: testPassword})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUnknownEmailHashIsVerifiable(t *testing.T) {
	// A malformed hash would return before argon2 runs and make unknown
	// emails cheaper than wrong passwords.
	h := dummyHash()
	require.Equal(t, h, dummyHash())
	require.ErrorIs(t, cryptox.VerifyPassword(testPassword, h), cryptox.ErrPasswordMismatch)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.login(t)

	t.Run("keeps the session id", func(t *testing.T) {
		out, err := f.tokens.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, first.SessionID, out.SessionID)

		session, err := f.store.Sessions().GetSession(ctx, first.SessionID)
		require.NoError(t, err)
		require.Equal(t, 1, session.RefreshCount)
		require.NotNil(t, session.LastRefreshedAt)
	})

	t.Run("picks up role changes", func(t *testing.T) {
		_, err := f.users.SetRole(ctx, f.admin.ID, domain.RoleViewer)
		require.NoError(t, err)

		out, err := f.tokens.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		claims, err := f.issuer.AccessVerifier().Verify(out.AccessToken)
		require.NoError(t, err)
		require.Equal(t, domain.RoleViewer, claims.String(jwtx.ClaimRole))
	})

	t.Run("rejects an access token", func(t *testing.T) {
		_, err := f.tokens.Refresh(ctx, first.AccessToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := f.tokens.Refresh(ctx, "garbage")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("refused after logout", func(t *testing.T) {
		require.NoError(t, f.tokens.Logout(ctx, first.RefreshToken))
		require.NoError(t, f.tokens.Logout(ctx, first.RefreshToken))

		_, err := f.tokens.Refresh(ctx, first.RefreshToken)
		require.ErrorIs(t, err, ErrSessionRevoked)
	})
}

func TestLogoutIgnoresInvalidTokens(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.Logout(context.Background(), "not-a-token"))
}

func TestLoginWithMFA(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	enrollment, err := f.mfa.EnrollTOTP(ctx, f.admin.ID)
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", enrollment.Account)
	require.Contains(t, enrollment.URL, "otpauth://totp/")

	// Pending enrollment does not gate login yet.
	f.login(t)

	_, err = f.mfa.VerifyTOTP(ctx, f.admin.ID, "000000")
	require.ErrorIs(t, err, ErrInvalidOTP)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	user, err := f.mfa.VerifyTOTP(ctx, f.admin.ID, code)
	require.NoError(t, err)
	require.True(t, user.HasMFA())

	_, err = f.mfa.EnrollTOTP(ctx, f.admin.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)

	_, err = f.tokens.Login(ctx, LoginInput{Email: "ops@example.com", Password: testPassword})
	require.ErrorIs(t, err, ErrMFARequired)

	_, err = f.tokens.Login(ctx, LoginInput{Email: "ops@example.com", Password: testPassword, OTP: "000000"})
	require.ErrorIs(t, err, ErrInvalidOTP)

	_, err = f.tokens.Login(ctx, LoginInput{Email: "ops@example.com", Password: testPassword, OTP: code})
	require.NoError(t, err)

	require.NoError(t, f.mfa.RemoveMFA(ctx, f.admin.ID, code))
	require.ErrorIs(t, f.mfa.RemoveMFA(ctx, f.admin.ID, code), ErrMFANotEnabled)
	f.login(t)
}

func TestVerifyWithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	_, err := f.mfa.VerifyTOTP(context.Background(), f.admin.ID, "123456")
	require.ErrorIs(t, err, ErrMFANotEnrolled)
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.CreateUser(ctx, NewUser{Email: " ", Password: testPassword})
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.users.CreateUser(ctx, NewUser{Email: "a@example.com", Password: testPassword, Role: "root"})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.users.CreateUser(ctx, NewUser{Email: "a@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.users.CreateUser(ctx, NewUser{Email: "OPS@example.com", Password: testPassword})
	require.ErrorIs(t, err, ErrEmailTaken)

	u, err := f.users.CreateUser(ctx, NewUser{Email: "viewer@example.com", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, domain.RoleViewer, u.Role)

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	out := f.login(t)

	require.ErrorIs(t, f.users.ChangePassword(ctx, f.admin.ID, "wrong", "another long password"), ErrInvalidCredentials)
	require.NoError(t, f.users.ChangePassword(ctx, f.admin.ID, testPassword, "another long password"))

	_, err := f.tokens.Refresh(ctx, out.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)

	_, err = f.tokens.Login(ctx, LoginInput{Email: "ops@example.com", Password: "another long password"})
	require.NoError(t, err)
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.SeedAdmin(ctx, "second@example.com", "")
	require.ErrorIs(t, err, ErrAlreadySeeded)

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	defer st.Close()

	users := &UserService{Store: st}
	password, err := users.SeedAdmin(ctx, "root@example.com", "")
	require.NoError(t, err)
	require.Len(t, password, 20)

	u, err := st.Users().GetUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, u.Role)
	require.NoError(t, cryptox.VerifyPassword(password, u.PasswordHash))
}

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	live := f.login(t)
	gone := f.login(t)
	require.NoError(t, f.tokens.Logout(ctx, gone.RefreshToken))

	hk := NewHousekeepingService(f.store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	require.Equal(t, int64(1), hk.Cleanup(ctx))

	_, err := f.store.Sessions().GetSession(ctx, live.SessionID)
	require.NoError(t, err)

	hk.Start()
	hk.Stop()
}
