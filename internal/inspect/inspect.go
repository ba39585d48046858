// Package inspect is a manual debugging aid for client-side credentials. It
// reads, mutates and clears the stored token bundle and fires a sample request
// to watch the SDK refresh flow engage.
//
// Every failure is logged and swallowed. Methods report what happened through
// their return values only so the CLI can pick an exit code.
package inspect

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
)

// Inspector operates on one credential store.
type Inspector struct {
	Store  authsdk.CredentialStore
	Client *authsdk.SDKClient
	Logger *slog.Logger
	Now    func() time.Time
}

// New creates an Inspector. client may be nil when Probe is not used.
func New(store authsdk.CredentialStore, client *authsdk.SDKClient, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{
		Store:  store,
		Client: client,
		Logger: logger,
		Now:    time.Now,
	}
}

// TokenState describes one stored token.
type TokenState struct {
	Present   bool
	ExpiresAt time.Time // zero when absent or undecodable
	Expired   bool
}

// Report is the result of Show.
type Report struct {
	Present map[string]bool
	Access  TokenState
	Refresh TokenState
}

// Show logs which keys are stored and the decoded expiry of both tokens.
func (i *Inspector) Show(ctx context.Context) Report {
	rep := Report{Present: make(map[string]bool, len(authsdk.Keys))}
	values := make(map[string]string, len(authsdk.Keys))

	for _, key := range authsdk.Keys {
		v, ok, err := i.Store.Get(ctx, key)
		if err != nil {
			i.Logger.Error("failed to read credential", "key", key, "err", err)
			continue
		}
		rep.Present[key] = ok && v != ""
		values[key] = v
		i.Logger.Info("credential", "key", key, "present", rep.Present[key])
	}

	rep.Access = i.describe(authsdk.KeyAccessToken, values[authsdk.KeyAccessToken])
	rep.Refresh = i.describe(authsdk.KeyRefreshToken, values[authsdk.KeyRefreshToken])
	return rep
}

func (i *Inspector) describe(key, token string) TokenState {
	if token == "" {
		i.Logger.Warn("token missing", "key", key)
		return TokenState{}
	}

	state := TokenState{Present: true}
	claims, err := authsdk.DecodeClaims(token)
	if err != nil {
		i.Logger.Error("failed to decode token payload", "key", key, "err", err)
		return state
	}

	exp, ok := claims.ExpiresAt()
	if !ok {
		i.Logger.Warn("token has no exp claim", "key", key)
		return state
	}

	now := i.Now()
	state.ExpiresAt = exp
	state.Expired = !exp.After(now)
	i.Logger.Info("token",
		"key", key,
		"exp", exp.UTC().Format(time.RFC3339),
		"expired", state.Expired,
		"remaining", exp.Sub(now).Round(time.Second).String(),
		"sub", claims.String("id"),
		"role", claims.String("role"),
	)
	return state
}

// ExpireAccessToken rewrites the stored access token's exp one hour into the
// past and stores the result. The signature no longer matches, so the token
// is only good for tripping client refresh logic.
func (i *Inspector) ExpireAccessToken(ctx context.Context) bool {
	token, ok, err := i.Store.Get(ctx, authsdk.KeyAccessToken)
	if err != nil {
		i.Logger.Error("failed to read access token", "err", err)
		return false
	}
	if !ok || token == "" {
		i.Logger.Warn("no access token stored")
		return false
	}

	at := i.Now().Add(-time.Hour)
	expired, err := authsdk.ForceExpire(token, at)
	if err != nil {
		i.Logger.Error("failed to rewrite access token", "err", err)
		return false
	}

	if err := i.Store.Set(ctx, authsdk.KeyAccessToken, expired); err != nil {
		i.Logger.Error("failed to store access token", "err", err)
		return false
	}

	i.Logger.Info("access token forced to expire", "exp", at.UTC().Format(time.RFC3339))
	return true
}

// Clear removes every stored credential key.
func (i *Inspector) Clear(ctx context.Context) bool {
	if err := authsdk.ClearCredentials(ctx, i.Store); err != nil {
		i.Logger.Error("failed to clear credentials", "err", err)
		return false
	}
	i.Logger.Info("credentials cleared", "keys", len(authsdk.Keys))
	return true
}

// ProbeResult is the outcome of Probe.
type ProbeResult struct {
	OK        bool
	Refreshed bool
	Me        *authsdk.MeResponse
}

// Probe resumes a session from the store and calls GET /v1/me, reporting
// whether the SDK had to refresh on the way.
func (i *Inspector) Probe(ctx context.Context) ProbeResult {
	if i.Client == nil {
		i.Logger.Error("probe needs a server URL")
		return ProbeResult{}
	}

	session, err := i.Client.ResumeSession(ctx, i.Store)
	if err != nil {
		i.Logger.Error("failed to resume session", "err", err)
		return ProbeResult{}
	}

	me, err := session.Me(ctx)
	res := ProbeResult{Refreshed: session.Refreshes() > 0}
	if err != nil {
		i.Logger.Error("probe request failed", "refreshed", res.Refreshed, "err", err)
		return res
	}

	res.OK = true
	res.Me = me
	i.Logger.Info("probe request succeeded",
		"refreshed", res.Refreshed,
		"user_id", me.ID,
		"role", me.Role,
		"sid", me.SessionID,
		"exp", time.Unix(me.ExpiresAt, 0).UTC().Format(time.RFC3339),
	)
	return res
}
