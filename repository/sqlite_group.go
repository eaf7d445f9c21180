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

type sqliteGroupRepo struct {
	db database.TxQuerier
}

// NewSQLiteGroupRepo returns the SQLite GroupRepository.
func NewSQLiteGroupRepo(db database.TxQuerier) GroupRepository {
	return &sqliteGroupRepo{db: db}
}

const groupSelect = `
	SELECT g.id, g.name, g.description, g.capacity, g.meeting_schedule, g.created_at,
	       (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id)
	FROM groups g`

func scanGroup(row interface{ Scan(...any) error }, g *models.Group) error {
	return row.Scan(&g.ID, &g.Name, &g.Description, &g.Capacity, &g.MeetingSchedule, &g.CreatedAt, &g.MemberCount)
}

func (r *sqliteGroupRepo) Create(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO groups (id, name, description, capacity, meeting_schedule)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		group.Name, group.Description, group.Capacity, group.MeetingSchedule,
	).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: group name already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create group: %w", err)
	}

	return nil
}

func (r *sqliteGroupRepo) GetByID(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	err := scanGroup(r.db.QueryRowContext(ctx, groupSelect+` WHERE g.id = ?`, id), group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func (r *sqliteGroupRepo) List(ctx context.Context) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, groupSelect+` ORDER BY g.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := scanGroup(rows, &g); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	return groups, nil
}

func (r *sqliteGroupRepo) Update(ctx context.Context, group *models.Group) error {
	query := `
		UPDATE groups SET name = ?, description = ?, capacity = ?, meeting_schedule = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		group.Name, group.Description, group.Capacity, group.MeetingSchedule, group.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: group name already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update group: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteGroupRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return requireAffected(result)
}

// ─── Membership ───

func (r *sqliteGroupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (user_id, group_id, joined_at) VALUES (?, ?, ?)`,
		userID, groupID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: member already belongs to a group", pkg.ErrAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: group or user", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

func (r *sqliteGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteGroupRepo) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	query := `
		SELECT u.id, u.full_name, u.email, gm.joined_at
		FROM group_members gm
		INNER JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at, u.full_name`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	members := []models.GroupMember{}
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.UserID, &m.FullName, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member row: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group member rows: %w", err)
	}

	return members, nil
}

func (r *sqliteGroupRepo) CountMembers(ctx context.Context, groupID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ?`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group members: %w", err)
	}
	return count, nil
}

func (r *sqliteGroupRepo) GetByUserID(ctx context.Context, userID string) (*models.Group, error) {
	query := groupSelect + ` INNER JOIN group_members me ON me.group_id = g.id WHERE me.user_id = ?`

	group := &models.Group{}
	err := scanGroup(r.db.QueryRowContext(ctx, query, userID), group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user's group: %w", err)
	}
	return group, nil
}
