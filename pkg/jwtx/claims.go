package jwtx

import (
	"encoding/json"
	"maps"
	"math"
	"time"
)

// Default token TTL constants. Both can be overridden with
// ACCESS_TOKEN_EXPIRY / REFRESH_TOKEN_EXPIRY.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claim names used across the dashboard services.
const (
	ClaimExpiry    = "exp"
	ClaimUserID    = "id"
	ClaimEmail     = "email"
	ClaimRole      = "role"
	ClaimSessionID = "sid"
)

// Claims is the identity mapping carried inside a token. It is passed through
// signing untouched, the issuer only adds "exp".
type Claims map[string]any

// Clone returns a shallow copy so callers can add "exp" without mutating the
// mapping they were handed.
func (c Claims) Clone() Claims {
	out := make(Claims, len(c)+1)
	maps.Copy(out, c)
	return out
}

// String returns the claim as a string, or "" when it is missing or not a string.
func (c Claims) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// ExpiresAt returns the "exp" claim as a time. Depending on how the payload
// was decoded the value may be a float64, a json.Number or an integer.
func (c Claims) ExpiresAt() (time.Time, bool) {
	v, ok := c[ClaimExpiry]
	if !ok {
		return time.Time{}, false
	}

	var secs float64
	switch n := v.(type) {
	case float64:
		secs = n
	case int64:
		secs = float64(n)
	case int:
		secs = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, false
		}
		secs = f
	default:
		return time.Time{}, false
	}

	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
}

// Identity returns the claims without "exp", i.e. what the caller originally
// asked the issuer to sign.
func (c Claims) Identity() Claims {
	out := c.Clone()
	delete(out, ClaimExpiry)
	return out
}

// ValidateExpiry ensures the token hasn't expired. Claims without "exp" are
// accepted; the verifier is where "exp" is made mandatory.
func (c Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	exp, ok := c.ExpiresAt()
	if !ok {
		return nil
	}

	if time.Now().UTC().After(exp.Add(leeway)) {
		return ErrExpired
	}

	return nil
}
