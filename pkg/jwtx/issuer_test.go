package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret-for-tests")
	refreshSecret = []byte("refresh-secret-for-tests")
)

func newIssuer(t *testing.T, now time.Time) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)
	return iss
}

func TestNewIssuer(t *testing.T) {
	t.Run("missing access secret", func(t *testing.T) {
		_, err := jwtx.NewIssuer(jwtx.IssuerOptions{RefreshSecret: refreshSecret})
		require.ErrorIs(t, err, jwtx.ErrNoSecret)
	})

	t.Run("missing refresh secret", func(t *testing.T) {
		_, err := jwtx.NewIssuer(jwtx.IssuerOptions{AccessSecret: accessSecret})
		require.ErrorIs(t, err, jwtx.ErrNoSecret)
	})

	t.Run("refresh not longer than access", func(t *testing.T) {
		_, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			AccessSecret:  accessSecret,
			RefreshSecret: refreshSecret,
			AccessTTL:     time.Hour,
			RefreshTTL:    time.Hour,
		})
		require.ErrorIs(t, err, jwtx.ErrTTLOrder)
	})

	t.Run("ttls differing by less than a second", func(t *testing.T) {
		_, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			AccessSecret:  accessSecret,
			RefreshSecret: refreshSecret,
			AccessTTL:     time.Second,
			RefreshTTL:    1500 * time.Millisecond,
		})
		require.ErrorIs(t, err, jwtx.ErrTTLOrder)
	})

	t.Run("sub-second access ttl", func(t *testing.T) {
		_, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			AccessSecret:  accessSecret,
			RefreshSecret: refreshSecret,
			AccessTTL:     500 * time.Millisecond,
			RefreshTTL:    time.Hour,
		})
		require.ErrorIs(t, err, jwtx.ErrTTLTooShort)
	})

	t.Run("fractional ttls keep access before refresh", func(t *testing.T) {
		now := time.Unix(1700000000, 200_000_000)
		iss, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			AccessSecret:  accessSecret,
			RefreshSecret: refreshSecret,
			AccessTTL:     1500 * time.Millisecond,
			RefreshTTL:    2900 * time.Millisecond,
			Now:           func() time.Time { return now },
		})
		require.NoError(t, err)
		require.Equal(t, time.Second, iss.AccessTTL())
		require.Equal(t, 2*time.Second, iss.RefreshTTL())

		pair, err := iss.IssuePair(jwtx.Claims{"id": "u1"})
		require.NoError(t, err)
		require.True(t, pair.AccessExpiresAt.Before(pair.RefreshExpiresAt))
		require.Equal(t, int64(1700000001), pair.AccessExpiresAt.Unix())
		require.Equal(t, int64(1700000002), pair.RefreshExpiresAt.Unix())
	})

	t.Run("defaults", func(t *testing.T) {
		iss, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			AccessSecret:  accessSecret,
			RefreshSecret: refreshSecret,
		})
		require.NoError(t, err)
		require.True(t, iss.IsReady())
		require.Equal(t, jwtx.DefaultAccessTokenTTL, iss.AccessTTL())
		require.Equal(t, jwtx.DefaultRefreshTokenTTL, iss.RefreshTTL())
	})
}

func TestIssueAccessTokenPayload(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	iss := newIssuer(t, now)

	tok, err := iss.IssueAccessToken(jwtx.Claims{"id": "u1", "role": "admin"})
	require.NoError(t, err)

	payload, err := jwtx.DecodePayload(tok)
	require.NoError(t, err)
	require.Len(t, payload, 3)
	require.Equal(t, jwtx.Claims{"id": "u1", "role": "admin"}, payload.Identity())

	exp, ok := payload.ExpiresAt()
	require.True(t, ok)
	require.Equal(t, now.Add(15*time.Minute).Unix(), exp.Unix())
}

func TestIssuePair(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	iss := newIssuer(t, now)
	claims := jwtx.Claims{"id": "u1", "email": "ops@example.com", "role": "admin"}

	pair, err := iss.IssuePair(claims)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.True(t, pair.AccessExpiresAt.Before(pair.RefreshExpiresAt))

	access, err := jwtx.DecodePayload(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := jwtx.DecodePayload(pair.RefreshToken)
	require.NoError(t, err)

	require.Equal(t, claims, access.Identity())
	require.Equal(t, claims, refresh.Identity())

	accessExp, _ := access.ExpiresAt()
	refreshExp, _ := refresh.ExpiresAt()
	require.True(t, accessExp.Before(refreshExp))
	require.Equal(t, pair.RefreshExpiresAt, refreshExp)

	// Input mapping is not mutated.
	require.NotContains(t, claims, "exp")
}

func TestIssueRejectsReservedClaim(t *testing.T) {
	iss := newIssuer(t, time.Now())

	_, err := iss.IssueAccessToken(jwtx.Claims{"id": "u1", "exp": int64(1)})
	require.ErrorIs(t, err, jwtx.ErrReservedClaim)

	_, err = iss.IssueRefreshToken(jwtx.Claims{"id": "u1", "exp": int64(1)})
	require.ErrorIs(t, err, jwtx.ErrReservedClaim)
}

func TestIssueOnZeroIssuer(t *testing.T) {
	var iss jwtx.Issuer
	_, err := iss.IssueAccessToken(jwtx.Claims{"id": "u1"})
	require.Error(t, err)
	require.False(t, iss.IsReady())
}

func TestVerifierRoundTrip(t *testing.T) {
	iss := newIssuer(t, time.Now())
	claims := jwtx.Claims{"id": "u1", "role": "admin"}

	pair, err := iss.IssuePair(claims)
	require.NoError(t, err)

	got, err := iss.AccessVerifier().Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, claims, got.Identity())

	got, err = iss.RefreshVerifier().Verify(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, claims, got.Identity())

	t.Run("access token does not verify as refresh", func(t *testing.T) {
		_, err := iss.RefreshVerifier().Verify(pair.AccessToken)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})
}
