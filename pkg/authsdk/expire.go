package authsdk

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
)

// DecodeClaims returns the unverified payload of a token.
func DecodeClaims(token string) (jwtx.Claims, error) {
	return jwtx.DecodePayload(token)
}

// ForceExpire rewrites the "exp" claim of token to at and re-encodes the
// payload. Header and signature are kept as is, so the result no longer
// verifies. It only exists to exercise client refresh logic.
func ForceExpire(token string, at time.Time) (string, error) {
	claims, err := jwtx.DecodePayload(token)
	if err != nil {
		return "", err
	}
	claims[jwtx.ClaimExpiry] = at.Unix()

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	parts := strings.Split(token, ".")
	parts[1] = base64.RawURLEncoding.EncodeToString(payload)
	return strings.Join(parts, "."), nil
}

// tokenExpiry reads "exp" from an access token payload. A token that cannot
// be decoded reports the zero time, which callers treat as expired.
func tokenExpiry(token string) time.Time {
	claims, err := jwtx.DecodePayload(token)
	if err != nil {
		return time.Time{}
	}
	exp, _ := claims.ExpiresAt()
	return exp
}
