// HTTP middleware for authentication. The middleware verifies the bearer token
// on every request of a protected route group and makes the authenticated user
// id available through the request context; it rejects the request with 401
// before any core logic runs when no valid identity is attached.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/config"
)

// ContextKey is a custom type for context keys. Using a package-private type
// prevents key collisions with values stored by other packages.
type ContextKey string

const (
	// UserIDKey is the key under which the authenticated user's ID is stored
	// in the request context.
	UserIDKey ContextKey = "userID"
)

// JWTMiddleware creates the JWT authentication middleware. It verifies the
// token from the Authorization header and adds the user ID to the context.
func JWTMiddleware(cfg *config.AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, r, apperror.NewAuthError("Authorization header is missing", nil))
				return
			}

			// The Authorization header must be in the form "Bearer {token}".
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteError(w, r, apperror.NewAuthError("Authorization header format must be Bearer {token}", nil))
				return
			}

			tokenString := parts[1]
			claims := &CustomClaims{}

			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil {
				WriteError(w, r, apperror.NewAuthError(fmt.Sprintf("invalid token: %v", err), err))
				return
			}

			if !token.Valid {
				WriteError(w, r, apperror.NewAuthError("invalid token", nil))
				return
			}

			// Only access tokens grant access to protected resources; a
			// refresh token in the Authorization header is rejected.
			if claims.TokenType != tokenTypeAccess {
				WriteError(w, r, apperror.NewAuthError("token is not an access token", nil))
				return
			}

			if claims.UserID == 0 {
				WriteError(w, r, apperror.NewAuthError("invalid token: user_id claim is missing or invalid", nil))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns 0 and false if no user ID is present.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// NewContextWithUserID returns a child context carrying the given user ID, as
// the middleware would have stored it. Useful for wiring tests.
func NewContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
