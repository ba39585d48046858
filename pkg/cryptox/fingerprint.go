package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a short, stable identifier for a token that is safe to
// log. It is the first 12 characters of the base64url SHA-256 digest.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:12]
}
