// Package middleware holds the HTTP middleware chain: the bearer-token
// auth gate in front of every protected handler, and per-request IDs.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aanand-mishra/admin-api/internal/auth"
	"github.com/aanand-mishra/admin-api/internal/utils/response"
)

// contextKey is unexported so no other package can collide with our
// context values.
type contextKey string

const claimsKey contextKey = "authClaims"

// SetClaims returns a child context carrying the verified token claims.
// Exported so handler tests can simulate an authenticated request
// without running the full middleware chain.
func SetClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the verified claims stored by Auth, or nil when the
// request never passed through the gate.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// Auth is the gate in front of every protected endpoint. It extracts the
// bearer token from the Authorization header and verifies it BEFORE the
// handler body executes.
//
// Status contract:
//
//	401 — no usable token in the request ("Token required")
//	403 — a token was presented but failed verification: bad signature,
//	      malformed, or expired ("Invalid token")
//
// On success the claims are stored on the request context for handlers
// that need the caller's identity (e.g. change-password).
func Auth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.WriteJSON(w, http.StatusUnauthorized,
					response.GeneralError(errors.New("Token required")))
				return
			}

			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				response.WriteJSON(w, http.StatusUnauthorized,
					response.GeneralError(errors.New("Token required")))
				return
			}

			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				slog.Debug("rejected bearer token", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusForbidden,
					response.GeneralError(errors.New("Invalid token")))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetClaims(r.Context(), claims)))
		})
	}
}
