package repository

import (
	"context"
	"time"

	"github.com/akinalp/circle/models"
)

// DeletionRepository stores account deletion requests.
type DeletionRepository interface {
	// Create fails with pkg.ErrAlreadyExists when the user already has a
	// pending request.
	Create(ctx context.Context, req *models.DeletionRequest) error
	GetByID(ctx context.Context, id string) (*models.DeletionRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.DeletionRequest, error)
	// List returns requests, optionally narrowed to one status, oldest first.
	List(ctx context.Context, status models.DeletionStatus) ([]models.DeletionRequest, error)
	// Resolve moves a pending request to status. Returns pkg.ErrNotFound
	// when the request does not exist or is no longer pending.
	Resolve(ctx context.Context, id string, status models.DeletionStatus, note *string, processedBy string, at time.Time) error
}
