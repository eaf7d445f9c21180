package repository

import (
	"context"

	"github.com/akinalp/circle/models"
)

// GroupRepository stores accountability groups and their rosters.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	// List returns every group with its member count.
	List(ctx context.Context) ([]models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error

	// AddMember fails with pkg.ErrAlreadyExists when the user already
	// belongs to a group.
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	CountMembers(ctx context.Context, groupID string) (int, error)
	// GetByUserID returns the user's group, or pkg.ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*models.Group, error)
}
