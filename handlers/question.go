package handlers

import (
	"fmt"
	"net/http"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/pkg/ratelimit"
	"github.com/akinalp/circle/services"
)

// QAHandler serves questions and answers.
type QAHandler struct {
	qaService   services.QAService
	postLimiter *ratelimit.PostRateLimiter
}

// NewQAHandler is the constructor. postLimiter throttles new questions and
// answers per member; nil disables it.
func NewQAHandler(qaService services.QAService, postLimiter *ratelimit.PostRateLimiter) *QAHandler {
	return &QAHandler{
		qaService:   qaService,
		postLimiter: postLimiter,
	}
}

// ListQuestions godoc
// GET /api/questions?limit=50&offset=0
// Community questions plus the caller's group questions, newest first.
func (h *QAHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	questions, err := h.qaService.ListQuestions(r.Context(), user, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, questions)
}

// GetQuestion godoc
// GET /api/questions/{id}
func (h *QAHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	thread, err := h.qaService.GetQuestion(r.Context(), user, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, thread)
}

// CreateQuestion godoc
// POST /api/questions
// Body: { "title": "...", "body": "...", "group_only": false }
func (h *QAHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !h.allowPost(w, user.ID) {
		return
	}

	var req models.CreateQuestionRequest
	if !decode(w, r, &req) {
		return
	}

	question, err := h.qaService.CreateQuestion(r.Context(), user, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, question)
}

// DeleteQuestion godoc
// DELETE /api/questions/{id}
func (h *QAHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.qaService.DeleteQuestion(r.Context(), user, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "question deleted"})
}

// CreateAnswer godoc
// POST /api/questions/{id}/answers
// Body: { "body": "..." }
func (h *QAHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !h.allowPost(w, user.ID) {
		return
	}

	var req models.CreateAnswerRequest
	if !decode(w, r, &req) {
		return
	}

	answer, err := h.qaService.CreateAnswer(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, answer)
}

// DeleteAnswer godoc
// DELETE /api/answers/{id}
func (h *QAHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.qaService.DeleteAnswer(r.Context(), user, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "answer deleted"})
}

func (h *QAHandler) allowPost(w http.ResponseWriter, userID string) bool {
	if h.postLimiter == nil || h.postLimiter.Allow(userID) {
		return true
	}

	cooldown := h.postLimiter.CooldownSeconds(userID)
	w.Header().Set("Retry-After", fmt.Sprintf("%d", cooldown))
	pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
		fmt.Sprintf("you are posting too fast, please wait %s", ratelimit.FormatRetryMessage(cooldown)))
	return false
}
