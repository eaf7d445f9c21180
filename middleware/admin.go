package middleware

import (
	"net/http"

	"github.com/akinalp/circle/handlers"
	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

// AdminMiddleware allows only admins through. It runs after
// AuthMiddleware, which puts the user in the context.
type AdminMiddleware struct{}

// NewAdminMiddleware is the constructor.
func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

// Require answers 403 for members.
func (m *AdminMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		if !user.IsAdmin() {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
