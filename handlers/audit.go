package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/services"
)

// AuditHandler serves the admin audit log.
type AuditHandler struct {
	auditService services.AuditService
}

// NewAuditHandler is the constructor.
func NewAuditHandler(auditService services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List godoc
// GET /api/admin/audit?action=application.review&actor_id=...&entity_type=group&limit=100&offset=0
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AuditFilter{
		Action:     q.Get("action"),
		ActorID:    q.Get("actor_id"),
		EntityType: q.Get("entity_type"),
		Limit:      queryInt(r, "limit", 0),
		Offset:     queryInt(r, "offset", 0),
	}

	page, err := h.auditService.List(r.Context(), filter)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}
