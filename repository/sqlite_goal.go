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

type sqliteGoalRepo struct {
	db database.TxQuerier
}

// NewSQLiteGoalRepo returns the SQLite GoalRepository.
func NewSQLiteGoalRepo(db database.TxQuerier) GoalRepository {
	return &sqliteGoalRepo{db: db}
}

const goalColumns = `id, user_id, title, description, target_date, status, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }, g *models.Goal) error {
	return row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.TargetDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
}

func (r *sqliteGoalRepo) Create(ctx context.Context, goal *models.Goal) error {
	if goal.Status == "" {
		goal.Status = models.GoalActive
	}
	now := time.Now().UTC()
	goal.CreatedAt, goal.UpdatedAt = now, now

	query := `
		INSERT INTO goals (id, user_id, title, description, target_date, status, created_at, updated_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		goal.UserID, goal.Title, goal.Description, goal.TargetDate, goal.Status, now, now,
	).Scan(&goal.ID)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (r *sqliteGoalRepo) GetByID(ctx context.Context, id string) (*models.Goal, error) {
	goal := &models.Goal{}
	err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id), goal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

func (r *sqliteGoalRepo) ListByUser(ctx context.Context, userID string, status models.GoalStatus) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	return r.query(ctx, query, args...)
}

func (r *sqliteGoalRepo) ListActiveByUsers(ctx context.Context, userIDs []string) (map[string][]models.Goal, error) {
	byUser := make(map[string][]models.Goal, len(userIDs))
	if len(userIDs) == 0 {
		return byUser, nil
	}

	query := `SELECT ` + goalColumns + ` FROM goals
		WHERE status = 'active' AND user_id IN (` + placeholders(len(userIDs)) + `)
		ORDER BY created_at`

	goals, err := r.query(ctx, query, stringArgs(userIDs)...)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		byUser[g.UserID] = append(byUser[g.UserID], g)
	}
	return byUser, nil
}

func (r *sqliteGoalRepo) CountActive(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM goals WHERE user_id = ? AND status = 'active'`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active goals: %w", err)
	}
	return count, nil
}

func (r *sqliteGoalRepo) Update(ctx context.Context, goal *models.Goal) error {
	goal.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE goals SET title = ?, description = ?, target_date = ?, status = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title, goal.Description, goal.TargetDate, goal.Status, goal.UpdatedAt, goal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteGoalRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteGoalRepo) query(ctx context.Context, query string, args ...any) ([]models.Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		var g models.Goal
		if err := scanGoal(rows, &g); err != nil {
			return nil, fmt.Errorf("failed to scan goal row: %w", err)
		}
		goals = append(goals, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal rows: %w", err)
	}

	return goals, nil
}
