package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/database"
	"github.com/akinalp/circle/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "circle.db"), database.Migrations(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.Conn
}

func createUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		FullName:     "User " + email,
		PasswordHash: "hash",
		Role:         models.UserRoleMember,
	}
	require.NoError(t, NewSQLiteUserRepo(db).Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }
