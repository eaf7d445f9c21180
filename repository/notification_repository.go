package repository

import (
	"context"
	"time"

	"github.com/akinalp/circle/models"
)

// NotificationRepository stores email preferences and the digest queue.
type NotificationRepository interface {
	// GetPreferences returns pkg.ErrNotFound when the user never saved any.
	GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	// GetPreferencesMany returns the stored preferences of several users,
	// keyed by user id. Users without a row are absent.
	GetPreferencesMany(ctx context.Context, userIDs []string) (map[string]*models.NotificationPreferences, error)
	UpsertPreferences(ctx context.Context, prefs *models.NotificationPreferences) error

	Enqueue(ctx context.Context, item *models.QueuedNotification) error
	// ListPendingUserIDs returns users with at least one unsent item.
	ListPendingUserIDs(ctx context.Context) ([]string, error)
	ListPendingByUser(ctx context.Context, userID string) ([]models.QueuedNotification, error)
	MarkSent(ctx context.Context, ids []string, at time.Time) error
	// PruneSent deletes items sent before cutoff.
	PruneSent(ctx context.Context, cutoff time.Time) (int64, error)
}
