package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed     = errors.New("jwtx: malformed token")
	ErrAlgMismatch   = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig    = errors.New("jwtx: invalid signature")
	ErrNoSecret      = errors.New("jwtx: signing secret not configured")
	ErrReservedClaim = errors.New("jwtx: claims already contain exp")
	ErrTTLOrder      = errors.New("jwtx: refresh ttl must be longer than access ttl")
	ErrTTLTooShort   = errors.New("jwtx: token ttl must be at least one second")

	ErrExpired      = errors.New("jwtx: token expired")
	ErrMissingExp   = errors.New("jwtx: token has no exp")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates tokens signed by an HS256Signer with the same secret.
type HS256Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifierHS256 creates a verifier for the given secret. Leeway allows
// small clock skew when checking exp.
func NewVerifierHS256(secret []byte, leeway time.Duration) *HS256Verifier {
	return &HS256Verifier{secret: secret, leeway: leeway}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrNoSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)

	mc := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenStr, mc, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidClaim
	}

	return Claims(mc), nil
}

// mapParseError folds the jwt library errors onto our sentinels so callers
// only ever need errors.Is against jwtx values.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// A disallowed alg is reported by the parser as an invalid signature too.
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrAlgMismatch, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %w", ErrMissingExp, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}
