package httpx

import (
	"net/http"
	"slices"

	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
)

// RequireRole lets the request through only when the caller's "role" claim
// is one of roles. It must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			if !slices.Contains(roles, claims.String(jwtx.ClaimRole)) {
				WriteError(w, http.StatusForbidden, "insufficient_role", "caller role is not allowed here")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
