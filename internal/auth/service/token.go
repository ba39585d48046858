package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
	"github.com/aussiebroadwan/dashauth/internal/auth/store"
	"github.com/aussiebroadwan/dashauth/pkg/cryptox"
	"github.com/aussiebroadwan/dashauth/pkg/idx"
	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrSessionRevoked     = errors.New("session_revoked")
	ErrMFARequired        = errors.New("mfa_required")
	ErrInvalidOTP         = errors.New("invalid_otp")
)

// dummyHash is verified against when the email is unknown so both failure
// paths take the same time.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword("dashauth unknown user")
	if err != nil {
		panic(err)
	}
	return h
})

// LoginInput carries a login attempt plus the client details recorded on
// the session.
type LoginInput struct {
	Email      string
	Password   string
	OTP        string
	UserAgent  string
	RemoteAddr string
}

// IssuedTokens is what login and refresh hand back to the transport.
type IssuedTokens struct {
	jwtx.TokenPair
	User      domain.User
	SessionID string
}

// TokenService authenticates users and issues token pairs through the
// jwtx.Issuer. Every pair belongs to a session so logout can stop refresh.
type TokenService struct {
	Store  store.Store
	Issuer *jwtx.Issuer
}

// Login checks email, password and, when enrolled, the TOTP code. On success
// a new session is recorded and a token pair is issued for it.
func (s *TokenService) Login(ctx context.Context, in LoginInput) (*IssuedTokens, error) {
	l := slogx.FromContext(ctx)
	email := domain.NormalizeEmail(in.Email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Pay the same argon2 cost as a wrong password.
			_ = cryptox.VerifyPassword(in.Password, dummyHash())
			l.Info("login for unknown email", slog.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(in.Password, user.PasswordHash); err != nil {
		l.Info("login password mismatch", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	if user.HasMFA() {
		if in.OTP == "" {
			return nil, ErrMFARequired
		}
		if !totp.Validate(in.OTP, *user.MFASecret) {
			l.Info("login otp mismatch", slog.String("user_id", user.ID))
			return nil, ErrInvalidOTP
		}
	}

	now := time.Now()
	session := domain.Session{
		ID:         idx.NewAt(now).String(),
		UserID:     user.ID,
		ExpiresAt:  now.Add(s.Issuer.RefreshTTL()),
		UserAgent:  in.UserAgent,
		RemoteAddr: in.RemoteAddr,
		CreatedAt:  now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return nil, err
	}

	pair, err := s.Issuer.IssuePair(claimsFor(user, session.ID))
	if err != nil {
		return nil, err
	}

	l.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
		slog.String("access_fp", cryptox.Fingerprint(pair.AccessToken)),
	)

	return &IssuedTokens{TokenPair: pair, User: user, SessionID: session.ID}, nil
}

// Refresh verifies a refresh token against the refresh secret and issues a
// new pair for the same session. The user is reloaded so role changes show
// up in the next access token.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*IssuedTokens, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Issuer.RefreshVerifier().Verify(refreshToken)
	if err != nil {
		l.Info("refresh token rejected",
			slog.String("token_fp", cryptox.Fingerprint(refreshToken)),
			slog.String("reason", err.Error()),
		)
		return nil, ErrInvalidRefresh
	}

	sid := claims.String(jwtx.ClaimSessionID)
	userID := claims.String(jwtx.ClaimUserID)
	if sid == "" || userID == "" {
		return nil, ErrInvalidRefresh
	}

	var result *IssuedTokens
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		session, err := tx.Sessions().GetSession(ctx, sid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		now := time.Now()
		switch {
		case session.UserID != userID:
			return ErrInvalidRefresh
		case session.Revoked:
			return ErrSessionRevoked
		case !session.Active(now):
			return ErrInvalidRefresh
		}

		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if err := tx.Sessions().TouchSession(ctx, sid, now); err != nil {
			return err
		}

		pair, err := s.Issuer.IssuePair(claimsFor(user, sid))
		if err != nil {
			return err
		}
		result = &IssuedTokens{TokenPair: pair, User: user, SessionID: sid}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionRevoked) {
			l.Warn("refresh on revoked session", slog.String("session_id", sid))
		}
		return nil, err
	}

	l.Info("tokens refreshed", slog.String("session_id", sid), slog.String("user_id", userID))
	return result, nil
}

// Logout revokes the session behind a refresh token. Tokens that fail
// verification are ignored so logout is always safe to repeat.
func (s *TokenService) Logout(ctx context.Context, refreshToken string) error {
	l := slogx.FromContext(ctx)

	claims, err := s.Issuer.RefreshVerifier().Verify(refreshToken)
	if err != nil {
		l.Info("logout with unusable refresh token", slog.String("reason", err.Error()))
		return nil
	}

	sid := claims.String(jwtx.ClaimSessionID)
	if sid == "" {
		return nil
	}

	if err := s.Store.Sessions().RevokeSession(ctx, sid); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	l.Info("session revoked", slog.String("session_id", sid))
	return nil
}

// claimsFor builds the identity claims carried by both tokens.
func claimsFor(u domain.User, sessionID string) jwtx.Claims {
	return jwtx.Claims{
		jwtx.ClaimUserID:    u.ID,
		jwtx.ClaimEmail:     u.Email,
		jwtx.ClaimRole:      u.Role,
		jwtx.ClaimSessionID: sessionID,
	}
}
