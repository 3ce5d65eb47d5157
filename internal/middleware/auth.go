package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platefinder/platefinder/internal/auth"
)

// TokenValidator validates a bearer token and returns its claims.
// *auth.JWTService satisfies this interface.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// RequireAuth returns a middleware that validates the Authorization header
// and stores the authenticated user ID in the request context. Requests
// without a valid bearer access token are rejected with 401.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeErrorResponse(w, r, http.StatusUnauthorized,
					"auth_failed", "missing or malformed Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				message := "invalid access token"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "access token expired"
				}
				writeErrorResponse(w, r, http.StatusUnauthorized, "auth_failed", message)
				return
			}

			if claims.Type != auth.TokenTypeAccess {
				writeErrorResponse(w, r, http.StatusUnauthorized,
					"auth_failed", "token is not an access token")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
