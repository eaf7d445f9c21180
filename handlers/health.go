package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/akinalp/circle/pkg"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the service can reach its database. Load
// balancers poll it without authentication.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler is the constructor.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health godoc
// GET /api/health
// Response: { "success": true, "data": { "status": "ok" } }
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		pkg.ErrorWithMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
