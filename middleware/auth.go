// Package middleware holds the HTTP middleware chain.
//
// A middleware is func(next http.Handler) http.Handler: it does its check,
// then either calls next or writes the error response and stops.
//
//	authMw.Require(adminMw.Require(http.HandlerFunc(h.List)))
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/circle/handlers"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/repository"
	"github.com/akinalp/circle/ws"
)

// AuthMiddleware validates bearer access tokens.
type AuthMiddleware struct {
	tokens   ws.TokenValidator
	userRepo repository.UserRepository
}

// NewAuthMiddleware is the constructor. The auth service satisfies
// ws.TokenValidator.
func NewAuthMiddleware(tokens ws.TokenValidator, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// Require rejects requests without a valid "Authorization: Bearer <token>"
// header. The user is reloaded from the database so deleted accounts and
// role changes take effect before the token expires.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.tokens.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}

		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
