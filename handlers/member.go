package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/services"
)

// MemberHandler serves profile edits and the admin member list.
type MemberHandler struct {
	memberService services.MemberService
}

// NewMemberHandler is the constructor.
func NewMemberHandler(memberService services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// UpdateProfile godoc
// PATCH /api/users/me/profile
// Body: { "full_name": "...", "timezone": "Europe/Istanbul" }
func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	updated, err := h.memberService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	updated.PasswordHash = ""

	pkg.JSON(w, http.StatusOK, updated)
}

// List godoc
// GET /api/admin/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, members)
}

// SetRole godoc
// PATCH /api/admin/members/{id}/role
// Body: { "role": "admin" }
func (h *MemberHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.SetRoleRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.memberService.SetRole(r.Context(), admin.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}
