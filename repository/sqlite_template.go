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

type sqliteTemplateRepo struct {
	db database.TxQuerier
}

// NewSQLiteTemplateRepo returns the SQLite TemplateRepository.
func NewSQLiteTemplateRepo(db database.TxQuerier) TemplateRepository {
	return &sqliteTemplateRepo{db: db}
}

const templateColumns = `key, subject, body, description, updated_by, updated_at`

func scanTemplate(row interface{ Scan(...any) error }, t *models.EmailTemplate) error {
	return row.Scan(&t.Key, &t.Subject, &t.Body, &t.Description, &t.UpdatedBy, &t.UpdatedAt)
}

func (r *sqliteTemplateRepo) List(ctx context.Context) ([]models.EmailTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM email_templates ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}
	defer rows.Close()

	templates := []models.EmailTemplate{}
	for rows.Next() {
		var t models.EmailTemplate
		if err := scanTemplate(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan email template: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating email templates: %w", err)
	}

	return templates, nil
}

func (r *sqliteTemplateRepo) GetByKey(ctx context.Context, key string) (*models.EmailTemplate, error) {
	t := &models.EmailTemplate{}
	err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE key = ?`, key), t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: email template %q", pkg.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email template: %w", err)
	}
	return t, nil
}

func (r *sqliteTemplateRepo) Update(ctx context.Context, key, subject, body, updatedBy string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE email_templates SET subject = ?, body = ?, updated_by = ?, updated_at = ?
		WHERE key = ?`,
		subject, body, updatedBy, time.Now().UTC(), key,
	)
	if err != nil {
		return fmt.Errorf("failed to update email template: %w", err)
	}
	return requireAffected(result)
}
