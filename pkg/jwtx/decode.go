package jwtx

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DecodePayload returns the claims of a token without checking its signature
// or expiry. Only use it for display and debugging, never for authorization.
func DecodePayload(tokenStr string) (Claims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(jwt.WithJSONNumber())
	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenStr, mc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return Claims(mc), nil
}
