package repository

import (
	"context"
	"time"

	"github.com/akinalp/circle/models"
)

// TaskRepository stores weekly tasks.
type TaskRepository interface {
	// Create appends the task after the user's existing tasks of that week.
	Create(ctx context.Context, task *models.WeeklyTask) error
	GetByID(ctx context.Context, id string) (*models.WeeklyTask, error)
	ListByUserWeek(ctx context.Context, userID, week string) ([]models.WeeklyTask, error)
	Update(ctx context.Context, task *models.WeeklyTask) error
	// SetCompleted stamps completed_at when completing and clears it otherwise.
	SetCompleted(ctx context.Context, id string, completed bool, at time.Time) error
	Delete(ctx context.Context, id string) error
	CountByUserWeek(ctx context.Context, userID, week string) (models.TaskCounts, error)
	// CountByUsersWeek returns task counts for several users in one week.
	CountByUsersWeek(ctx context.Context, userIDs []string, week string) (map[string]models.TaskCounts, error)
}
