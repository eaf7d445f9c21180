package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/handlers"
	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/pkg/metrics"
	"github.com/akinalp/circle/repository"
)

// tokenMap accepts the tokens it knows and maps them to user ids.
type tokenMap map[string]string

func (m tokenMap) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	userID, ok := m[token]
	if !ok {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	return &models.TokenClaims{UserID: userID}, nil
}

func newUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "circle.db"), database.Migrations(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewSQLiteUserRepo(db.Conn)
}

// echoUser answers 200 with the email of the user in the context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Header().Set("X-Password-Hash", user.PasswordHash)
	fmt.Fprint(w, user.Email)
})

func TestAuthMiddleware_Require(t *testing.T) {
	users := newUserRepo(t)
	ada := &models.User{Email: "ada@circle.test", FullName: "Ada", PasswordHash: "hash", Role: models.UserRoleMember}
	require.NoError(t, users.Create(context.Background(), ada))

	mw := NewAuthMiddleware(tokenMap{"ada-token": ada.ID, "ghost-token": "missing"}, users)
	handler := mw.Require(echoUser)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token ada-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"deleted account", "Bearer ghost-token", http.StatusUnauthorized},
		{"valid", "Bearer ada-token", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "ada@circle.test", rec.Body.String())
				assert.Empty(t, rec.Header().Get("X-Password-Hash"))
			}
		})
	}
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), handlers.UserContextKey, u))
}

func TestAdminMiddleware_Require(t *testing.T) {
	handler := NewAdminMiddleware().Require(echoUser)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	member := &models.User{Email: "m@circle.test", Role: models.UserRoleMember}
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil), member))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin access required")

	rec = httptest.NewRecorder()
	admin := &models.User{Email: "a@circle.test", Role: models.UserRoleAdmin}
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil), admin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// requestCount reads circle_http_requests_total for route and status.
func requestCount(t *testing.T, route, status string) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "circle_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == route && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Metrics(mux)

	okBefore := requestCount(t, "GET /api/widgets/{id}", "204")
	notFoundBefore := requestCount(t, "GET /api/widgets/{id}", "404")
	unmatchedBefore := requestCount(t, "unmatched", "404")

	for _, path := range []string{"/api/widgets/1", "/api/widgets/2", "/api/widgets/missing", "/nowhere"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, okBefore+2, requestCount(t, "GET /api/widgets/{id}", "204"))
	assert.Equal(t, notFoundBefore+1, requestCount(t, "GET /api/widgets/{id}", "404"))
	assert.Equal(t, unmatchedBefore+1, requestCount(t, "unmatched", "404"))
}

func TestStatusRecorder_UnwrapAndHijackSupport(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	assert.Same(t, rec, sr.Unwrap())

	// httptest.ResponseRecorder cannot be hijacked, the error must surface.
	_, _, err := sr.Hijack()
	assert.Error(t, err)
}
