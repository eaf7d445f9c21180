package repository

import (
	"context"

	"github.com/akinalp/circle/models"
)

// AuditRepository is the append-only audit log.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	// List returns one page matching the filter, newest first, and the
	// total match count.
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int, error)
}
