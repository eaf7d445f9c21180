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

type sqliteNotificationRepo struct {
	db database.TxQuerier
}

// NewSQLiteNotificationRepo returns the SQLite NotificationRepository.
func NewSQLiteNotificationRepo(db database.TxQuerier) NotificationRepository {
	return &sqliteNotificationRepo{db: db}
}

const preferenceColumns = `user_id, frequency, questions, answers, group_activity, updated_at`

func scanPreferences(row interface{ Scan(...any) error }, p *models.NotificationPreferences) error {
	return row.Scan(&p.UserID, &p.Frequency, &p.Questions, &p.Answers, &p.GroupActivity, &p.UpdatedAt)
}

func (r *sqliteNotificationRepo) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	prefs := &models.NotificationPreferences{}
	err := scanPreferences(r.db.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id = ?`, userID), prefs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}
	return prefs, nil
}

func (r *sqliteNotificationRepo) GetPreferencesMany(ctx context.Context, userIDs []string) (map[string]*models.NotificationPreferences, error) {
	byUser := make(map[string]*models.NotificationPreferences, len(userIDs))
	if len(userIDs) == 0 {
		return byUser, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id IN (`+placeholders(len(userIDs))+`)`,
		stringArgs(userIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &models.NotificationPreferences{}
		if err := scanPreferences(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan preferences row: %w", err)
		}
		byUser[p.UserID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences rows: %w", err)
	}

	return byUser, nil
}

func (r *sqliteNotificationRepo) UpsertPreferences(ctx context.Context, p *models.NotificationPreferences) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO notification_preferences (user_id, frequency, questions, answers, group_activity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			frequency = excluded.frequency,
			questions = excluded.questions,
			answers = excluded.answers,
			group_activity = excluded.group_activity,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.Frequency, p.Questions, p.Answers, p.GroupActivity, p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to save notification preferences: %w", err)
	}
	return nil
}

// ─── Digest queue ───

func (r *sqliteNotificationRepo) Enqueue(ctx context.Context, item *models.QueuedNotification) error {
	item.ID = uuid.NewString()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_queue (id, user_id, kind, subject, summary, link, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Kind, item.Subject, item.Summary, item.Link, item.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

func (r *sqliteNotificationRepo) ListPendingUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM notification_queue WHERE sent_at IS NULL ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending digest users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan digest user: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating digest users: %w", err)
	}

	return ids, nil
}

func (r *sqliteNotificationRepo) ListPendingByUser(ctx context.Context, userID string) ([]models.QueuedNotification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, subject, summary, link, created_at, sent_at
		FROM notification_queue
		WHERE user_id = ? AND sent_at IS NULL
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued notifications: %w", err)
	}
	defer rows.Close()

	items := []models.QueuedNotification{}
	for rows.Next() {
		var n models.QueuedNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Subject, &n.Summary, &n.Link, &n.CreatedAt, &n.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan queued notification: %w", err)
		}
		items = append(items, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queued notifications: %w", err)
	}

	return items, nil
}

func (r *sqliteNotificationRepo) MarkSent(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	args := append([]any{at.UTC()}, stringArgs(ids)...)
	_, err := r.db.ExecContext(ctx,
		`UPDATE notification_queue SET sent_at = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark notifications sent: %w", err)
	}
	return nil
}

func (r *sqliteNotificationRepo) PruneSent(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notification_queue WHERE sent_at IS NOT NULL AND sent_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sent notifications: %w", err)
	}
	return result.RowsAffected()
}
