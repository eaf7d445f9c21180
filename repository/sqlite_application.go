package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

type sqliteApplicationRepo struct {
	db database.TxQuerier
}

// NewSQLiteApplicationRepo returns the SQLite ApplicationRepository.
func NewSQLiteApplicationRepo(db database.TxQuerier) ApplicationRepository {
	return &sqliteApplicationRepo{db: db}
}

const applicationColumns = `id, full_name, email, phone, location, occupation, motivation, commitment,
	referral_source, status, admin_notes, reviewed_by, reviewed_at, created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }, a *models.Application) error {
	return row.Scan(
		&a.ID, &a.FullName, &a.Email, &a.Phone, &a.Location, &a.Occupation,
		&a.Motivation, &a.Commitment, &a.ReferralSource, &a.Status,
		&a.AdminNotes, &a.ReviewedBy, &a.ReviewedAt, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *sqliteApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	if app.Status == "" {
		app.Status = models.ApplicationPending
	}
	now := time.Now().UTC()
	app.CreatedAt, app.UpdatedAt = now, now

	query := `
		INSERT INTO applications (id, full_name, email, phone, location, occupation,
			motivation, commitment, referral_source, status, created_at, updated_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		app.FullName, app.Email, app.Phone, app.Location, app.Occupation,
		app.Motivation, app.Commitment, app.ReferralSource, app.Status, now, now,
	).Scan(&app.ID)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

func (r *sqliteApplicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)

	app := &models.Application{}
	err := scanApplication(row, app)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

func (r *sqliteApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	var where []string
	var args []any

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		where = append(where, `(full_name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	query := `SELECT ` + applicationColumns + ` FROM applications` + clause +
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var a models.Application
		if err := scanApplication(rows, &a); err != nil {
			return nil, 0, fmt.Errorf("failed to scan application row: %w", err)
		}
		apps = append(apps, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating application rows: %w", err)
	}

	return apps, total, nil
}

func (r *sqliteApplicationRepo) FindLatestByEmail(ctx context.Context, email string, statuses ...models.ApplicationStatus) (*models.Application, error) {
	args := []any{email}
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE email = ?`
	if len(statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	app := &models.Application{}
	err := scanApplication(r.db.QueryRowContext(ctx, query, args...), app)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application by email: %w", err)
	}

	return app, nil
}

func (r *sqliteApplicationRepo) UpdateReview(ctx context.Context, id string, status models.ApplicationStatus, notes *string, reviewerID string, at time.Time) error {
	query := `
		UPDATE applications
		SET status = ?, admin_notes = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, notes, reviewerID, at.UTC(), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update application review: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteApplicationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteApplicationRepo) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE email = ?`, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete applications: %w", err)
	}
	return result.RowsAffected()
}
