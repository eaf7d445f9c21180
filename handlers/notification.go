package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/services"
)

// NotificationHandler serves the caller's email preferences.
type NotificationHandler struct {
	notificationService services.NotificationService
}

// NewNotificationHandler is the constructor.
func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetPreferences godoc
// GET /api/notifications/preferences
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	prefs, err := h.notificationService.Preferences(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, prefs)
}

// UpdatePreferences godoc
// PUT /api/notifications/preferences
// Body: { "frequency": "digest", "answers": false }, every field optional.
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdatePreferencesRequest
	if !decode(w, r, &req) {
		return
	}

	prefs, err := h.notificationService.UpdatePreferences(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, prefs)
}
