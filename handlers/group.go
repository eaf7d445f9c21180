package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/services"
)

// GroupHandler serves the member group view and the admin group
// management endpoints.
type GroupHandler struct {
	groupService services.GroupService
}

// NewGroupHandler is the constructor.
func NewGroupHandler(groupService services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// View godoc
// GET /api/group?week=2026-10-12
func (h *GroupHandler) View(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.groupService.View(r.Context(), user, r.URL.Query().Get("week"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, view)
}

// List godoc
// GET /api/admin/groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, groups)
}

// Get godoc
// GET /api/admin/groups/{id}
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groupService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, group)
}

// Create godoc
// POST /api/admin/groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}

	group, err := h.groupService.Create(r.Context(), admin.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, group)
}

// Update godoc
// PATCH /api/admin/groups/{id}
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateGroupRequest
	if !decode(w, r, &req) {
		return
	}

	group, err := h.groupService.Update(r.Context(), admin.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, group)
}

// Delete godoc
// DELETE /api/admin/groups/{id}
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), admin.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// AddMember godoc
// POST /api/admin/groups/{id}/members
// Body: { "user_id": "..." }
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.AddGroupMemberRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.groupService.AddMember(r.Context(), admin.ID, r.PathValue("id"), req.UserID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]string{"message": "member added"})
}

// RemoveMember godoc
// DELETE /api/admin/groups/{id}/members/{userId}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.groupService.RemoveMember(r.Context(), admin.ID, r.PathValue("id"), r.PathValue("userId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}
