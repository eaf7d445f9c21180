package repository

import (
	"context"
	"time"

	"github.com/akinalp/circle/models"
)

// ApplicationRepository stores membership applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	// List returns one page matching the filter and the total match count.
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
	// FindLatestByEmail returns the newest application whose status is one of
	// statuses, or pkg.ErrNotFound.
	FindLatestByEmail(ctx context.Context, email string, statuses ...models.ApplicationStatus) (*models.Application, error)
	UpdateReview(ctx context.Context, id string, status models.ApplicationStatus, notes *string, reviewerID string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// DeleteByEmail erases every application filed with email.
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}
