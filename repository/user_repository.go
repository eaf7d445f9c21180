// Package repository is the data access layer. Services depend on the
// interfaces declared here; the sqlite_*.go files implement them.
//
// Every constructor takes a database.TxQuerier, so a repository can be built
// on the pool for ordinary calls or on a *sql.Tx inside database.WithTx.
package repository

import (
	"context"

	"github.com/akinalp/circle/models"
)

// UserRepository stores member accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail matches case-insensitively. Returns pkg.ErrNotFound when no
	// account uses the address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.MemberListItem, error)
	// ListIDs returns every account id, the audience of community-wide
	// notifications.
	ListIDs(ctx context.Context) ([]string, error)
	// GetMany loads the given accounts. Unknown ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID, fullName, timezone string) error
	UpdateRole(ctx context.Context, userID string, role models.UserRole) error
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	// Delete removes the account. Foreign keys cascade to its sessions,
	// dashboard data, membership and notification rows.
	Delete(ctx context.Context, id string) error
}
