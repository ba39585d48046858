/*
Package authsdk is the client SDK for the dashboard token service.

# SDKClient vs Session

SDKClient covers the unauthenticated endpoints (login, refresh, logout,
health). A Session wraps a token pair, persists it in a CredentialStore and
refreshes it automatically:

	client := authsdk.NewSDKClient("http://localhost:8080")
	store, err := authsdk.OpenSQLiteCredentialStore(ctx, "credentials.db")

	session, err := client.LoginSession(ctx, store, authsdk.LoginRequest{
		Email:    "ops@example.com",
		Password: "secret",
	})
	if errors.Is(err, authsdk.ErrMFARequired) {
		// ask for a code and retry with LoginRequest.OTP set
	}

	me, err := session.Me(ctx)

A later process picks the session back up from the same store:

	session, err := client.ResumeSession(ctx, store)

# Automatic Token Refresh

Before every request the session reads "exp" from the stored access token.
When it has passed (with a 30 second buffer) the refresh token is exchanged
for a new pair, which is written back to the store. A 401 from the server
forces one refresh and a single retry. Refreshes reports how often that
happened, which is what the token inspector uses to show whether the refresh
path engaged.

# Credential Store

The bundle lives under four fixed keys: accessToken, refreshToken, loginData
and userData. Values are stored in plain text and the last write wins.
MemoryCredentialStore and SQLiteCredentialStore are provided.

# Errors

Failed calls return an *APIError. Compare with errors.Is against the
predefined values, which match on the error code only.

# Thread Safety

Sessions are safe for concurrent use. Concurrent requests that find an
expired token trigger a single refresh.
*/
package authsdk
