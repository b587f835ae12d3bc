/*
middleware.go - Bearer-token authentication for the HTTP surface

PURPOSE:
  Resolves the caller from the Authorization header so handlers only ever
  see a verified employee id and role. Admin-only routes stack a second
  middleware on top.

FLOW:
  Authorization: Bearer <jwt>  ->  auth.TokenIssuer.Verify  ->  claims in
  request context  ->  handlers read them via callerClaims().

SEE ALSO:
  - auth/auth.go: Token issuing and verification
  - server.go:    Route groups using these middlewares
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/holiday-engine/auth"
)

type contextKey string

const claimsKey contextKey = "authClaims"

// Authenticator verifies bearer tokens and injects the claims into the
// request context.
func Authenticator(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}

			claims, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose token lacks the admin role. Must be
// stacked after Authenticator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := callerClaims(r)
		if !ok || !claims.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerClaims(r *http.Request) (auth.Claims, bool) {
	claims, ok := r.Context().Value(claimsKey).(auth.Claims)
	return claims, ok
}
