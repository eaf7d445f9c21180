package repository

import (
	"context"
	"time"

	"github.com/akinalp/circle/models"
)

// ReflectionRepository stores weekly reflections, one per user and week.
type ReflectionRepository interface {
	// Upsert inserts or replaces the reflection of (UserID, WeekStart).
	Upsert(ctx context.Context, reflection *models.Reflection) error
	GetByUserWeek(ctx context.Context, userID, week string) (*models.Reflection, error)
	// ClaimShareNotification stamps the first share of a reflection. It
	// reports true only for the caller that set the stamp.
	ClaimShareNotification(ctx context.Context, id string, now time.Time) (bool, error)
	// ListByUser returns the newest reflections first.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Reflection, error)
	// ListSharedByUsers returns the shared reflections of several users for
	// one week, keyed by user id.
	ListSharedByUsers(ctx context.Context, userIDs []string, week string) (map[string]*models.Reflection, error)
}
