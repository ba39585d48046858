package authsdk_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestCredentialStores(t *testing.T) {
	ctx := context.Background()

	sqliteStore, err := authsdk.OpenSQLiteCredentialStore(ctx, filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	for name, store := range map[string]authsdk.CredentialStore{
		"memory": authsdk.NewMemoryCredentialStore(),
		"sqlite": sqliteStore,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, authsdk.KeyAccessToken)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, store.Set(ctx, authsdk.KeyAccessToken, "one"))
			require.NoError(t, store.Set(ctx, authsdk.KeyAccessToken, "two"))
			v, ok, err := store.Get(ctx, authsdk.KeyAccessToken)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "two", v)

			require.NoError(t, authsdk.SaveBundle(ctx, store, authsdk.Bundle{
				AccessToken:  "a",
				RefreshToken: "r",
				LoginData:    `{"email":"x"}`,
				UserData:     `{"id":"u1"}`,
			}))
			b, err := authsdk.LoadBundle(ctx, store)
			require.NoError(t, err)
			require.Equal(t, "r", b.RefreshToken)

			require.NoError(t, authsdk.ClearCredentials(ctx, store))
			for _, key := range authsdk.Keys {
				_, ok, err := store.Get(ctx, key)
				require.NoError(t, err)
				require.False(t, ok, key)
			}

			// Deleting a missing key is not an error.
			require.NoError(t, store.Delete(ctx, authsdk.KeyUserData))
		})
	}
}

func TestForceExpire(t *testing.T) {
	secret := []byte("expire-secret")
	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)

	tok, err := signer.Sign(jwtx.Claims{
		"id":   "u1",
		"role": "admin",
		"n":    1234567890123,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute).Truncate(time.Second)
	expired, err := authsdk.ForceExpire(tok, past)
	require.NoError(t, err)
	require.NotEqual(t, tok, expired)

	before, err := authsdk.DecodeClaims(tok)
	require.NoError(t, err)
	after, err := authsdk.DecodeClaims(expired)
	require.NoError(t, err)

	exp, ok := after.ExpiresAt()
	require.True(t, ok)
	require.True(t, exp.Equal(past))
	require.Equal(t, before.Identity(), after.Identity())

	_, err = jwtx.NewVerifierHS256(secret, 0).Verify(expired)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	_, err = authsdk.ForceExpire("garbage", past)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestAPIErrorIs(t *testing.T) {
	err := error(&authsdk.APIError{StatusCode: http.StatusUnauthorized, Code: authsdk.ErrorCodeMFARequired, Description: "x"})
	require.ErrorIs(t, err, authsdk.ErrMFARequired)
	require.False(t, errors.Is(err, authsdk.ErrInvalidOTP))

	custom := authsdk.ErrInvalidRequest.WithDescription("email is required")
	require.Equal(t, "invalid_request: email is required", custom.Error())
	require.ErrorIs(t, custom, authsdk.ErrInvalidRequest)
}
