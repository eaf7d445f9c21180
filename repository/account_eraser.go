package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/models"
)

// AccountEraser removes a member's personal data and completes their
// deletion request in a single transaction.
type AccountEraser interface {
	Erase(ctx context.Context, requestID, userID, processedBy string, note *string, at time.Time) error
}

type sqliteAccountEraser struct {
	db *sql.DB
}

// NewSQLiteAccountEraser returns the SQLite AccountEraser. It needs the pool
// rather than a TxQuerier because it opens its own transaction.
func NewSQLiteAccountEraser(db *sql.DB) AccountEraser {
	return &sqliteAccountEraser{db: db}
}

// Erase deletes every application filed with the member's email, then the
// user row. Foreign keys cascade to sessions, reset tokens, goals, tasks,
// reflections, group membership, preferences and queued notifications;
// questions and answers stay with their author cleared.
func (e *sqliteAccountEraser) Erase(ctx context.Context, requestID, userID, processedBy string, note *string, at time.Time) error {
	return database.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		users := NewSQLiteUserRepo(tx)
		apps := NewSQLiteApplicationRepo(tx)
		deletions := NewSQLiteDeletionRepo(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if _, err := apps.DeleteByEmail(ctx, user.Email); err != nil {
			return err
		}
		if err := users.Delete(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return deletions.Resolve(ctx, requestID, models.DeletionCompleted, note, processedBy, at)
	})
}
