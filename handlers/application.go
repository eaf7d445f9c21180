package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/pkg/ratelimit"
	"github.com/akinalp/circle/services"
)

// ApplicationHandler serves the public intake form and the admin review
// queue.
type ApplicationHandler struct {
	appService    services.ApplicationService
	submitLimiter *ratelimit.SubmitLimiter
	proxies       ratelimit.TrustedProxies
}

// NewApplicationHandler is the constructor. A nil submitLimiter disables
// throttling of the public form.
func NewApplicationHandler(
	appService services.ApplicationService,
	submitLimiter *ratelimit.SubmitLimiter,
	proxies ratelimit.TrustedProxies,
) *ApplicationHandler {
	return &ApplicationHandler{
		appService:    appService,
		submitLimiter: submitLimiter,
		proxies:       proxies,
	}
}

// Submit godoc
// POST /api/applications
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.submitLimiter != nil && !h.submitLimiter.Allow(ratelimit.ExtractIP(r, h.proxies)) {
		w.Header().Set("Retry-After", "60")
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many applications, please try again in a minute")
		return
	}

	var req models.SubmitApplicationRequest
	if !decode(w, r, &req) {
		return
	}

	app, err := h.appService.Submit(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, app)
}

// List godoc
// GET /api/admin/applications?status=pending&q=ada&limit=50&offset=0
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ApplicationFilter{
		Status: models.ApplicationStatus(q.Get("status")),
		Search: q.Get("q"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}

	page, err := h.appService.List(r.Context(), filter)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Get godoc
// GET /api/admin/applications/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.appService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, app)
}

// Review godoc
// POST /api/admin/applications/{id}/review
// Body: { "status": "approved", "notes": "..." }
func (h *ApplicationHandler) Review(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ReviewApplicationRequest
	if !decode(w, r, &req) {
		return
	}

	app, err := h.appService.Review(r.Context(), admin.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, app)
}
