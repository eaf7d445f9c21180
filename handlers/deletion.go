package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/services"
)

// DeletionHandler serves account deletion requests.
type DeletionHandler struct {
	deletionService services.DeletionService
}

// NewDeletionHandler is the constructor.
func NewDeletionHandler(deletionService services.DeletionService) *DeletionHandler {
	return &DeletionHandler{deletionService: deletionService}
}

// Request godoc
// POST /api/users/me/deletion-request
// Body: { "reason": "..." }
func (h *DeletionHandler) Request(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateDeletionRequest
	if !decode(w, r, &req) {
		return
	}

	dr, err := h.deletionService.Request(r.Context(), user, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, dr)
}

// Mine godoc
// GET /api/users/me/deletion-request
func (h *DeletionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.deletionService.Mine(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// List godoc
// GET /api/admin/deletion-requests?status=pending
func (h *DeletionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.DeletionStatus(r.URL.Query().Get("status"))

	requests, err := h.deletionService.List(r.Context(), status)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// Process godoc
// POST /api/admin/deletion-requests/{id}/process
// Body: { "approve": true, "note": "..." }
func (h *DeletionHandler) Process(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ProcessDeletionRequest
	if !decode(w, r, &req) {
		return
	}

	dr, err := h.deletionService.Process(r.Context(), admin.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, dr)
}
