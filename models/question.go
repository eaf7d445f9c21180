package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Question is a Q&A thread. GroupID is nil for community-wide questions and
// set for questions only the group can see.
type Question struct {
	ID          string    `json:"id"`
	AuthorID    *string   `json:"author_id"`
	AuthorName  *string   `json:"author_name"`
	GroupID     *string   `json:"group_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	AnswerCount int       `json:"answer_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Answer is a reply to a question. AuthorID is nil once the author's account
// has been deleted.
type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	AuthorID   *string   `json:"author_id"`
	AuthorName *string   `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionWithAnswers is a full thread.
type QuestionWithAnswers struct {
	Question
	Answers []Answer `json:"answers"`
}

// CreateQuestionRequest asks a question. GroupOnly scopes it to the
// author's group.
type CreateQuestionRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	GroupOnly bool   `json:"group_only"`
}

// Validate checks title and body lengths.
func (r *CreateQuestionRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if n := utf8.RuneCountInString(r.Title); n < 3 || n > 200 {
		return fmt.Errorf("title must be between 3 and 200 characters")
	}
	r.Body = strings.TrimSpace(r.Body)
	return validateBody(r.Body)
}

// CreateAnswerRequest answers a question.
type CreateAnswerRequest struct {
	Body string `json:"body"`
}

// Validate checks the body length.
func (r *CreateAnswerRequest) Validate() error {
	r.Body = strings.TrimSpace(r.Body)
	return validateBody(r.Body)
}

func validateBody(body string) error {
	if n := utf8.RuneCountInString(body); n < 1 || n > 5000 {
		return fmt.Errorf("body must be between 1 and 5000 characters")
	}
	return nil
}

// Excerpt shortens s to at most n runes, adding an ellipsis when cut.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
