// Package handlers holds the HTTP layer.
//
// Handlers stay thin: decode the request, call a service, write the
// envelope. Business rules and storage access live in services.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/pkg/ratelimit"
	"github.com/akinalp/circle/services"
)

type contextKey string

// UserContextKey carries the authenticated *models.User, set by the auth
// middleware.
const UserContextKey contextKey = "user"

// AuthHandler serves signup, login and password endpoints.
type AuthHandler struct {
	authService        services.AuthService
	loginLimiter       *ratelimit.LoginRateLimiter
	eligibilityLimiter *ratelimit.SubmitLimiter
	proxies            ratelimit.TrustedProxies
}

// NewAuthHandler is the constructor. A nil limiter disables that throttle.
func NewAuthHandler(
	authService services.AuthService,
	loginLimiter *ratelimit.LoginRateLimiter,
	eligibilityLimiter *ratelimit.SubmitLimiter,
	proxies ratelimit.TrustedProxies,
) *AuthHandler {
	return &AuthHandler{
		authService:        authService,
		loginLimiter:       loginLimiter,
		eligibilityLimiter: eligibilityLimiter,
		proxies:            proxies,
	}
}

// Eligibility godoc
// POST /api/auth/eligibility
//
// Throttled per IP: the answer reveals whether an email has an approved
// application.
func (h *AuthHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	if h.eligibilityLimiter != nil && !h.eligibilityLimiter.Allow(ratelimit.ExtractIP(r, h.proxies)) {
		w.Header().Set("Retry-After", "60")
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many eligibility checks, please try again in a minute")
		return
	}

	var req models.EligibilityRequest
	if !decode(w, r, &req) {
		return
	}

	eligible, err := h.authService.CheckEligibility(r.Context(), req.Email)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]bool{"eligible": eligible})
}

// Register godoc
// POST /api/auth/register
// Only approved applicants and bootstrap admins may register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, tokens)
}

// Login godoc
// POST /api/auth/login
//
// Attempts are counted per IP. A successful login clears the counter.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r, h.proxies)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Logout godoc
// POST /api/auth/logout
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me godoc
// GET /api/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}

// ChangePassword godoc
// POST /api/users/me/password
// Body: { "current_password": "...", "new_password": "..." }
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// ForgotPassword godoc
// POST /api/auth/forgot-password
// Body: { "email": "..." }
//
// The response is the same whether or not the address exists. When a link
// went out recently the remaining cooldown is returned instead.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	cooldown, err := h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if cooldown > 0 {
		pkg.JSON(w, http.StatusOK, map[string]any{
			"message":  "cooldown active",
			"cooldown": cooldown,
		})
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{
		"message": "if the email exists, a reset link has been sent",
	})
}

// ResetPassword godoc
// POST /api/auth/reset-password
// Body: { "token": "...", "new_password": "..." }
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{
		"message": "password has been reset successfully",
	})
}
