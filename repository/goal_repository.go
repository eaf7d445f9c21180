package repository

import (
	"context"

	"github.com/akinalp/circle/models"
)

// GoalRepository stores member goals.
type GoalRepository interface {
	Create(ctx context.Context, goal *models.Goal) error
	GetByID(ctx context.Context, id string) (*models.Goal, error)
	// ListByUser returns the user's goals, optionally narrowed to one status.
	ListByUser(ctx context.Context, userID string, status models.GoalStatus) ([]models.Goal, error)
	// ListActiveByUsers groups the active goals of several users by user id.
	ListActiveByUsers(ctx context.Context, userIDs []string) (map[string][]models.Goal, error)
	CountActive(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, goal *models.Goal) error
	Delete(ctx context.Context, id string) error
}
