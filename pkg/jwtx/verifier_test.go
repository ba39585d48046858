package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestHS256VerifierErrors(t *testing.T) {
	signer, err := jwtx.NewSignerHS256(accessSecret)
	require.NoError(t, err)
	v := jwtx.NewVerifierHS256(accessSecret, 0)

	t.Run("expired", func(t *testing.T) {
		iss := newIssuer(t, time.Now().Add(-time.Hour))
		tok, err := iss.IssueAccessToken(jwtx.Claims{"id": "u1"})
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expired within leeway", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.Claims{"id": "u1", "exp": time.Now().Add(-5 * time.Second).Unix()})
		require.NoError(t, err)

		_, err = jwtx.NewVerifierHS256(accessSecret, 30*time.Second).Verify(tok)
		require.NoError(t, err)
	})

	t.Run("missing exp", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.Claims{"id": "u1"})
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMissingExp)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.Claims{"id": "u1", "exp": time.Now().Add(time.Minute).Unix()})
		require.NoError(t, err)

		_, err = jwtx.NewVerifierHS256([]byte("other"), 0).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("tampered payload", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.Claims{"id": "u1", "exp": time.Now().Add(time.Minute).Unix()})
		require.NoError(t, err)

		other, err := signer.Sign(jwtx.Claims{"id": "u2", "exp": time.Now().Add(time.Minute).Unix()})
		require.NoError(t, err)

		parts := strings.Split(tok, ".")
		otherParts := strings.Split(other, ".")
		forged := parts[0] + "." + otherParts[1] + "." + parts[2]

		_, err = v.Verify(forged)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("alg none", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"id":  "u1",
			"exp": time.Now().Add(time.Minute).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("no secret", func(t *testing.T) {
		_, err := jwtx.NewVerifierHS256(nil, 0).Verify("a.b.c")
		require.ErrorIs(t, err, jwtx.ErrNoSecret)
	})
}

func TestNewSignerHS256RequiresSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256(nil)
	require.ErrorIs(t, err, jwtx.ErrNoSecret)
}

func TestDecodePayload(t *testing.T) {
	t.Run("not three segments", func(t *testing.T) {
		_, err := jwtx.DecodePayload("a.b")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := jwtx.DecodePayload("a.!!!.c")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}
