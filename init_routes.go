// HTTP route registration.
//
// Middleware chain helpers:
//   - auth: bearer access token
//   - authAdmin: auth + admin role
package main

import (
	"net/http"

	"github.com/akinalp/circle/middleware"
	"github.com/akinalp/circle/pkg/metrics"
	"github.com/akinalp/circle/repository"
	"github.com/akinalp/circle/services"
)

// initRoutes builds the middleware chain and binds every endpoint.
//
// Literal paths are registered before parametric siblings
// ("/api/users/me" before anything under "/api/users/{...}") so the file
// reads the way the mux resolves them.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	adminMw := middleware.NewAdminMiddleware()

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authAdmin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(adminMw.Require(http.HandlerFunc(handler)))
	}

	// Public
	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.HandleFunc("POST /api/applications", h.Application.Submit)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth
	mux.HandleFunc("POST /api/auth/eligibility", h.Auth.Eligibility)
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)

	// Current user
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("PATCH /api/users/me/profile", auth(h.Member.UpdateProfile))
	mux.Handle("POST /api/users/me/password", auth(h.Auth.ChangePassword))
	mux.Handle("POST /api/users/me/deletion-request", auth(h.Deletion.Request))
	mux.Handle("GET /api/users/me/deletion-request", auth(h.Deletion.Mine))

	// Dashboard
	mux.Handle("GET /api/dashboard", auth(h.Dashboard.Summary))
	mux.Handle("GET /api/goals", auth(h.Dashboard.ListGoals))
	mux.Handle("POST /api/goals", auth(h.Dashboard.CreateGoal))
	mux.Handle("PATCH /api/goals/{id}", auth(h.Dashboard.UpdateGoal))
	mux.Handle("DELETE /api/goals/{id}", auth(h.Dashboard.DeleteGoal))
	mux.Handle("GET /api/tasks", auth(h.Dashboard.ListTasks))
	mux.Handle("POST /api/tasks", auth(h.Dashboard.CreateTask))
	mux.Handle("PATCH /api/tasks/{id}", auth(h.Dashboard.UpdateTask))
	mux.Handle("POST /api/tasks/{id}/toggle", auth(h.Dashboard.ToggleTask))
	mux.Handle("DELETE /api/tasks/{id}", auth(h.Dashboard.DeleteTask))
	mux.Handle("GET /api/reflections", auth(h.Dashboard.ListReflections))
	mux.Handle("GET /api/reflections/{week}", auth(h.Dashboard.GetReflection))
	mux.Handle("PUT /api/reflections/{week}", auth(h.Dashboard.UpsertReflection))

	// Group
	mux.Handle("GET /api/group", auth(h.Group.View))

	// Q&A
	mux.Handle("GET /api/questions", auth(h.QA.ListQuestions))
	mux.Handle("POST /api/questions", auth(h.QA.CreateQuestion))
	mux.Handle("GET /api/questions/{id}", auth(h.QA.GetQuestion))
	mux.Handle("DELETE /api/questions/{id}", auth(h.QA.DeleteQuestion))
	mux.Handle("POST /api/questions/{id}/answers", auth(h.QA.CreateAnswer))
	mux.Handle("DELETE /api/answers/{id}", auth(h.QA.DeleteAnswer))

	// Notifications
	mux.Handle("GET /api/notifications/preferences", auth(h.Notification.GetPreferences))
	mux.Handle("PUT /api/notifications/preferences", auth(h.Notification.UpdatePreferences))

	// Admin: applications
	mux.Handle("GET /api/admin/applications", authAdmin(h.Application.List))
	mux.Handle("GET /api/admin/applications/{id}", authAdmin(h.Application.Get))
	mux.Handle("POST /api/admin/applications/{id}/review", authAdmin(h.Application.Review))

	// Admin: groups
	mux.Handle("GET /api/admin/groups", authAdmin(h.Group.List))
	mux.Handle("POST /api/admin/groups", authAdmin(h.Group.Create))
	mux.Handle("GET /api/admin/groups/{id}", authAdmin(h.Group.Get))
	mux.Handle("PATCH /api/admin/groups/{id}", authAdmin(h.Group.Update))
	mux.Handle("DELETE /api/admin/groups/{id}", authAdmin(h.Group.Delete))
	mux.Handle("POST /api/admin/groups/{id}/members", authAdmin(h.Group.AddMember))
	mux.Handle("DELETE /api/admin/groups/{id}/members/{userId}", authAdmin(h.Group.RemoveMember))

	// Admin: members
	mux.Handle("GET /api/admin/members", authAdmin(h.Member.List))
	mux.Handle("PATCH /api/admin/members/{id}/role", authAdmin(h.Member.SetRole))

	// Admin: templates
	mux.Handle("GET /api/admin/templates", authAdmin(h.Template.List))
	mux.Handle("GET /api/admin/templates/{key}", authAdmin(h.Template.Get))
	mux.Handle("PUT /api/admin/templates/{key}", authAdmin(h.Template.Update))
	mux.Handle("POST /api/admin/templates/{key}/preview", authAdmin(h.Template.Preview))

	// Admin: audit and deletion requests
	mux.Handle("GET /api/admin/audit", authAdmin(h.Audit.List))
	mux.Handle("GET /api/admin/deletion-requests", authAdmin(h.Deletion.List))
	mux.Handle("POST /api/admin/deletion-requests/{id}/process", authAdmin(h.Deletion.Process))

	// WebSocket. Browsers cannot set headers on the upgrade request, so the
	// access token travels as ?token= and the handler validates it itself.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
