package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

type sqliteReflectionRepo struct {
	db database.TxQuerier
}

// NewSQLiteReflectionRepo returns the SQLite ReflectionRepository.
func NewSQLiteReflectionRepo(db database.TxQuerier) ReflectionRepository {
	return &sqliteReflectionRepo{db: db}
}

const reflectionColumns = `id, user_id, week_start, wins, challenges, next_focus, rating, shared, created_at, updated_at`

func scanReflection(row interface{ Scan(...any) error }, rf *models.Reflection) error {
	return row.Scan(
		&rf.ID, &rf.UserID, &rf.WeekStart, &rf.Wins, &rf.Challenges,
		&rf.NextFocus, &rf.Rating, &rf.Shared, &rf.CreatedAt, &rf.UpdatedAt,
	)
}

func (r *sqliteReflectionRepo) Upsert(ctx context.Context, rf *models.Reflection) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO reflections (id, user_id, week_start, wins, challenges, next_focus, rating, shared, created_at, updated_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			wins = excluded.wins,
			challenges = excluded.challenges,
			next_focus = excluded.next_focus,
			rating = excluded.rating,
			shared = excluded.shared,
			updated_at = excluded.updated_at
		RETURNING ` + reflectionColumns

	err := scanReflection(r.db.QueryRowContext(ctx, query,
		rf.UserID, rf.WeekStart, rf.Wins, rf.Challenges, rf.NextFocus,
		rf.Rating, rf.Shared, now, now,
	), rf)
	if err != nil {
		return fmt.Errorf("failed to upsert reflection: %w", err)
	}
	return nil
}

func (r *sqliteReflectionRepo) GetByUserWeek(ctx context.Context, userID, week string) (*models.Reflection, error) {
	rf := &models.Reflection{}
	err := scanReflection(r.db.QueryRowContext(ctx,
		`SELECT `+reflectionColumns+` FROM reflections WHERE user_id = ? AND week_start = ?`,
		userID, week,
	), rf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection: %w", err)
	}
	return rf, nil
}

func (r *sqliteReflectionRepo) ClaimShareNotification(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reflections SET share_notified_at = ? WHERE id = ? AND shared = 1 AND share_notified_at IS NULL`,
		now.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to stamp reflection share: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *sqliteReflectionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Reflection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reflectionColumns+` FROM reflections WHERE user_id = ? ORDER BY week_start DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reflections: %w", err)
	}
	defer rows.Close()

	reflections := []models.Reflection{}
	for rows.Next() {
		var rf models.Reflection
		if err := scanReflection(rows, &rf); err != nil {
			return nil, fmt.Errorf("failed to scan reflection row: %w", err)
		}
		reflections = append(reflections, rf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reflection rows: %w", err)
	}

	return reflections, nil
}

func (r *sqliteReflectionRepo) ListSharedByUsers(ctx context.Context, userIDs []string, week string) (map[string]*models.Reflection, error) {
	byUser := make(map[string]*models.Reflection, len(userIDs))
	if len(userIDs) == 0 {
		return byUser, nil
	}

	query := `SELECT ` + reflectionColumns + ` FROM reflections
		WHERE shared = 1 AND week_start = ? AND user_id IN (` + placeholders(len(userIDs)) + `)`

	rows, err := r.db.QueryContext(ctx, query, append([]any{week}, stringArgs(userIDs)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared reflections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rf := &models.Reflection{}
		if err := scanReflection(rows, rf); err != nil {
			return nil, fmt.Errorf("failed to scan reflection row: %w", err)
		}
		byUser[rf.UserID] = rf
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reflection rows: %w", err)
	}

	return byUser, nil
}
