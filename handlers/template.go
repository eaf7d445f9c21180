package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/services"
)

// TemplateHandler serves the admin email template editor.
type TemplateHandler struct {
	templateService services.TemplateService
}

// NewTemplateHandler is the constructor.
func NewTemplateHandler(templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// List godoc
// GET /api/admin/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, templates)
}

// Get godoc
// GET /api/admin/templates/{key}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.templateService.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tpl)
}

// Update godoc
// PUT /api/admin/templates/{key}
// Body: { "subject": "...", "body": "..." }
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateTemplateRequest
	if !decode(w, r, &req) {
		return
	}

	tpl, err := h.templateService.Update(r.Context(), admin.ID, r.PathValue("key"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tpl)
}

// Preview godoc
// POST /api/admin/templates/{key}/preview
// Body: { "subject": "...", "body": "...", "vars": { "full_name": "..." } }, all optional.
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req models.PreviewTemplateRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	rendered, err := h.templateService.Preview(r.Context(), r.PathValue("key"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, rendered)
}
