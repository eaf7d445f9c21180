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

type sqliteQuestionRepo struct {
	db database.TxQuerier
}

// NewSQLiteQuestionRepo returns the SQLite QuestionRepository.
func NewSQLiteQuestionRepo(db database.TxQuerier) QuestionRepository {
	return &sqliteQuestionRepo{db: db}
}

const questionSelect = `
	SELECT q.id, q.author_id, u.full_name, q.group_id, q.title, q.body,
	       (SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id),
	       q.created_at, q.updated_at
	FROM questions q
	LEFT JOIN users u ON u.id = q.author_id`

func scanQuestion(row interface{ Scan(...any) error }, q *models.Question) error {
	return row.Scan(
		&q.ID, &q.AuthorID, &q.AuthorName, &q.GroupID, &q.Title, &q.Body,
		&q.AnswerCount, &q.CreatedAt, &q.UpdatedAt,
	)
}

func (r *sqliteQuestionRepo) Create(ctx context.Context, q *models.Question) error {
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now

	query := `
		INSERT INTO questions (id, author_id, group_id, title, body, created_at, updated_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		q.AuthorID, q.GroupID, q.Title, q.Body, now, now,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *sqliteQuestionRepo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	q := &models.Question{}
	err := scanQuestion(r.db.QueryRowContext(ctx, questionSelect+` WHERE q.id = ?`, id), q)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (r *sqliteQuestionRepo) ListVisible(ctx context.Context, groupID *string, limit, offset int) ([]models.Question, error) {
	query := questionSelect + ` WHERE q.group_id IS NULL`
	args := []any{}
	if groupID != nil {
		query += ` OR q.group_id = ?`
		args = append(args, *groupID)
	}
	query += ` ORDER BY q.created_at DESC, q.id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}

	return questions, nil
}

func (r *sqliteQuestionRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return requireAffected(result)
}

// ─── Answers ───

type sqliteAnswerRepo struct {
	db database.TxQuerier
}

// NewSQLiteAnswerRepo returns the SQLite AnswerRepository.
func NewSQLiteAnswerRepo(db database.TxQuerier) AnswerRepository {
	return &sqliteAnswerRepo{db: db}
}

const answerSelect = `
	SELECT a.id, a.question_id, a.author_id, u.full_name, a.body, a.created_at
	FROM answers a
	LEFT JOIN users u ON u.id = a.author_id`

func scanAnswer(row interface{ Scan(...any) error }, a *models.Answer) error {
	return row.Scan(&a.ID, &a.QuestionID, &a.AuthorID, &a.AuthorName, &a.Body, &a.CreatedAt)
}

func (r *sqliteAnswerRepo) Create(ctx context.Context, a *models.Answer) error {
	a.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO answers (id, question_id, author_id, body, created_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query, a.QuestionID, a.AuthorID, a.Body, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: question", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

func (r *sqliteAnswerRepo) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	a := &models.Answer{}
	err := scanAnswer(r.db.QueryRowContext(ctx, answerSelect+` WHERE a.id = ?`, id), a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

func (r *sqliteAnswerRepo) ListByQuestion(ctx context.Context, questionID string) ([]models.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		answerSelect+` WHERE a.question_id = ? ORDER BY a.created_at, a.id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := scanAnswer(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer rows: %w", err)
	}

	return answers, nil
}

func (r *sqliteAnswerRepo) ListAuthorIDs(ctx context.Context, questionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT author_id FROM answers WHERE question_id = ? AND author_id IS NOT NULL`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answer authors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan answer author: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer authors: %w", err)
	}

	return ids, nil
}

func (r *sqliteAnswerRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	return requireAffected(result)
}
