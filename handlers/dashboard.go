package handlers

import (
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/services"
)

// DashboardHandler serves a member's own goals, weekly tasks, reflections
// and the summary card.
type DashboardHandler struct {
	dashboardService services.DashboardService
}

// NewDashboardHandler is the constructor.
func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary godoc
// GET /api/dashboard?week=2026-10-12
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	summary, err := h.dashboardService.Summary(r.Context(), user, r.URL.Query().Get("week"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, summary)
}

// ─── Goals ───

// ListGoals godoc
// GET /api/goals?status=active
func (h *DashboardHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	status := models.GoalStatus(r.URL.Query().Get("status"))
	goals, err := h.dashboardService.ListGoals(r.Context(), user.ID, status)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, goals)
}

// CreateGoal godoc
// POST /api/goals
func (h *DashboardHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateGoalRequest
	if !decode(w, r, &req) {
		return
	}

	goal, err := h.dashboardService.CreateGoal(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, goal)
}

// UpdateGoal godoc
// PATCH /api/goals/{id}
func (h *DashboardHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateGoalRequest
	if !decode(w, r, &req) {
		return
	}

	goal, err := h.dashboardService.UpdateGoal(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, goal)
}

// DeleteGoal godoc
// DELETE /api/goals/{id}
func (h *DashboardHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.dashboardService.DeleteGoal(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "goal deleted"})
}

// ─── Tasks ───

// ListTasks godoc
// GET /api/tasks?week=2026-10-12
func (h *DashboardHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.dashboardService.ListTasks(r.Context(), user, r.URL.Query().Get("week"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tasks)
}

// CreateTask godoc
// POST /api/tasks
func (h *DashboardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.dashboardService.CreateTask(r.Context(), user, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, task)
}

// UpdateTask godoc
// PATCH /api/tasks/{id}
func (h *DashboardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.dashboardService.UpdateTask(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, task)
}

// ToggleTask godoc
// POST /api/tasks/{id}/toggle
func (h *DashboardHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	task, err := h.dashboardService.ToggleTask(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, task)
}

// DeleteTask godoc
// DELETE /api/tasks/{id}
func (h *DashboardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.dashboardService.DeleteTask(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

// ─── Reflections ───

// ListReflections godoc
// GET /api/reflections?limit=12
func (h *DashboardHandler) ListReflections(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	reflections, err := h.dashboardService.ListReflections(r.Context(), user.ID, queryInt(r, "limit", 0))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, reflections)
}

// GetReflection godoc
// GET /api/reflections/{week}
func (h *DashboardHandler) GetReflection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	reflection, err := h.dashboardService.GetReflection(r.Context(), user, r.PathValue("week"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, reflection)
}

// UpsertReflection godoc
// PUT /api/reflections/{week}
func (h *DashboardHandler) UpsertReflection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpsertReflectionRequest
	if !decode(w, r, &req) {
		return
	}

	reflection, err := h.dashboardService.UpsertReflection(r.Context(), user, r.PathValue("week"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, reflection)
}
