package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

type sqliteDeletionRepo struct {
	db database.TxQuerier
}

// NewSQLiteDeletionRepo returns the SQLite DeletionRepository.
func NewSQLiteDeletionRepo(db database.TxQuerier) DeletionRepository {
	return &sqliteDeletionRepo{db: db}
}

const deletionColumns = `id, user_id, email, reason, status, admin_note, processed_by, processed_at, created_at`

func scanDeletion(row interface{ Scan(...any) error }, d *models.DeletionRequest) error {
	return row.Scan(
		&d.ID, &d.UserID, &d.Email, &d.Reason, &d.Status,
		&d.AdminNote, &d.ProcessedBy, &d.ProcessedAt, &d.CreatedAt,
	)
}

func (r *sqliteDeletionRepo) Create(ctx context.Context, req *models.DeletionRequest) error {
	req.ID = uuid.NewString()
	req.Status = models.DeletionPending
	req.CreatedAt = time.Now().UTC()

	// The NOT EXISTS guard keeps one pending request per user without a
	// partial unique index.
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO deletion_requests (id, user_id, email, reason, status, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM deletion_requests WHERE user_id = ? AND status = 'pending'
		)`,
		req.ID, req.UserID, req.Email, req.Reason, req.Status, req.CreatedAt, req.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create deletion request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: a deletion request is already pending", pkg.ErrAlreadyExists)
	}
	return nil
}

func (r *sqliteDeletionRepo) GetByID(ctx context.Context, id string) (*models.DeletionRequest, error) {
	d := &models.DeletionRequest{}
	err := scanDeletion(r.db.QueryRowContext(ctx,
		`SELECT `+deletionColumns+` FROM deletion_requests WHERE id = ?`, id), d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion request: %w", err)
	}
	return d, nil
}

func (r *sqliteDeletionRepo) ListByUser(ctx context.Context, userID string) ([]models.DeletionRequest, error) {
	return r.query(ctx,
		`SELECT `+deletionColumns+` FROM deletion_requests WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *sqliteDeletionRepo) List(ctx context.Context, status models.DeletionStatus) ([]models.DeletionRequest, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+deletionColumns+` FROM deletion_requests ORDER BY created_at`)
	}
	return r.query(ctx,
		`SELECT `+deletionColumns+` FROM deletion_requests WHERE status = ? ORDER BY created_at`, status)
}

func (r *sqliteDeletionRepo) Resolve(ctx context.Context, id string, status models.DeletionStatus, note *string, processedBy string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE deletion_requests
		SET status = ?, admin_note = ?, processed_by = ?, processed_at = ?
		WHERE id = ? AND status = 'pending'`,
		status, note, processedBy, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve deletion request: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteDeletionRepo) query(ctx context.Context, query string, args ...any) ([]models.DeletionRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deletion requests: %w", err)
	}
	defer rows.Close()

	requests := []models.DeletionRequest{}
	for rows.Next() {
		var d models.DeletionRequest
		if err := scanDeletion(rows, &d); err != nil {
			return nil, fmt.Errorf("failed to scan deletion request: %w", err)
		}
		requests = append(requests, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deletion requests: %w", err)
	}

	return requests, nil
}
