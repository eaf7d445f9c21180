package repository

import (
	"context"

	"github.com/akinalp/circle/models"
)

// QuestionRepository stores Q&A questions.
type QuestionRepository interface {
	Create(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	// ListVisible returns community questions plus, when groupID is set, the
	// questions of that group. Newest first.
	ListVisible(ctx context.Context, groupID *string, limit, offset int) ([]models.Question, error)
	Delete(ctx context.Context, id string) error
}

// AnswerRepository stores answers to questions.
type AnswerRepository interface {
	Create(ctx context.Context, a *models.Answer) error
	GetByID(ctx context.Context, id string) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID string) ([]models.Answer, error)
	// ListAuthorIDs returns the distinct, still existing authors of a
	// question's answers.
	ListAuthorIDs(ctx context.Context, questionID string) ([]string, error)
	Delete(ctx context.Context, id string) error
}
