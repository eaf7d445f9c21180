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

type sqliteTaskRepo struct {
	db database.TxQuerier
}

// NewSQLiteTaskRepo returns the SQLite TaskRepository.
func NewSQLiteTaskRepo(db database.TxQuerier) TaskRepository {
	return &sqliteTaskRepo{db: db}
}

const taskColumns = `id, user_id, goal_id, title, week_start, completed, completed_at, position, created_at`

func scanTask(row interface{ Scan(...any) error }, t *models.WeeklyTask) error {
	return row.Scan(&t.ID, &t.UserID, &t.GoalID, &t.Title, &t.WeekStart, &t.Completed, &t.CompletedAt, &t.Position, &t.CreatedAt)
}

func (r *sqliteTaskRepo) Create(ctx context.Context, task *models.WeeklyTask) error {
	task.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO weekly_tasks (id, user_id, goal_id, title, week_start, position, created_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?,
			COALESCE((SELECT MAX(position) FROM weekly_tasks WHERE user_id = ? AND week_start = ?), -1) + 1,
			?)
		RETURNING id, position`

	err := r.db.QueryRowContext(ctx, query,
		task.UserID, task.GoalID, task.Title, task.WeekStart,
		task.UserID, task.WeekStart, task.CreatedAt,
	).Scan(&task.ID, &task.Position)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepo) GetByID(ctx context.Context, id string) (*models.WeeklyTask, error) {
	task := &models.WeeklyTask{}
	err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM weekly_tasks WHERE id = ?`, id), task)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (r *sqliteTaskRepo) ListByUserWeek(ctx context.Context, userID, week string) ([]models.WeeklyTask, error) {
	query := `SELECT ` + taskColumns + ` FROM weekly_tasks
		WHERE user_id = ? AND week_start = ?
		ORDER BY position, created_at`

	rows, err := r.db.QueryContext(ctx, query, userID, week)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.WeeklyTask{}
	for rows.Next() {
		var t models.WeeklyTask
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

func (r *sqliteTaskRepo) Update(ctx context.Context, task *models.WeeklyTask) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE weekly_tasks SET title = ?, goal_id = ? WHERE id = ?`,
		task.Title, task.GoalID, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteTaskRepo) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) error {
	var completedAt *time.Time
	if completed {
		utc := at.UTC()
		completedAt = &utc
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE weekly_tasks SET completed = ?, completed_at = ? WHERE id = ?`,
		completed, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task completion: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM weekly_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteTaskRepo) CountByUserWeek(ctx context.Context, userID, week string) (models.TaskCounts, error) {
	var counts models.TaskCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(completed), 0)
		FROM weekly_tasks WHERE user_id = ? AND week_start = ?`, userID, week,
	).Scan(&counts.Total, &counts.Completed)
	if err != nil {
		return counts, fmt.Errorf("failed to count tasks: %w", err)
	}
	return counts, nil
}

func (r *sqliteTaskRepo) CountByUsersWeek(ctx context.Context, userIDs []string, week string) (map[string]models.TaskCounts, error) {
	counts := make(map[string]models.TaskCounts, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT user_id, COUNT(*), COALESCE(SUM(completed), 0)
		FROM weekly_tasks
		WHERE week_start = ? AND user_id IN (` + placeholders(len(userIDs)) + `)
		GROUP BY user_id`

	rows, err := r.db.QueryContext(ctx, query, append([]any{week}, stringArgs(userIDs)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to count group tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var c models.TaskCounts
		if err := rows.Scan(&userID, &c.Total, &c.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan task count row: %w", err)
		}
		counts[userID] = c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task count rows: %w", err)
	}

	return counts, nil
}
