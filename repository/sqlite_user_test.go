package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

func TestUserRepo_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	user := createUser(t, db, "ada@example.com")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "UTC", user.Timezone)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "ada@example.com")

	err := NewSQLiteUserRepo(db).Create(context.Background(), &models.User{
		Email: "Ada@Example.com", FullName: "Other", PasswordHash: "x", Role: models.UserRoleMember,
	})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestUserRepo_ListIncludesGroup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ada := createUser(t, db, "ada@example.com")
	createUser(t, db, "bob@example.com")

	group := &models.Group{Name: "Morning", Capacity: 8}
	require.NoError(t, NewSQLiteGroupRepo(db).Create(ctx, group))
	require.NoError(t, NewSQLiteGroupRepo(db).AddMember(ctx, group.ID, ada.ID))

	members, err := NewSQLiteUserRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)

	byEmail := map[string]models.MemberListItem{}
	for _, m := range members {
		byEmail[m.Email] = m
	}
	require.NotNil(t, byEmail["ada@example.com"].GroupName)
	assert.Equal(t, "Morning", *byEmail["ada@example.com"].GroupName)
	assert.Nil(t, byEmail["bob@example.com"].GroupID)
}

func TestUserRepo_Updates(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")

	require.NoError(t, repo.UpdateProfile(ctx, user.ID, "Ada King", "Europe/London"))
	require.NoError(t, repo.UpdateRole(ctx, user.ID, models.UserRoleAdmin))
	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada King", got.FullName)
	assert.Equal(t, "Europe/London", got.Timezone)
	assert.Equal(t, models.UserRoleAdmin, got.Role)
	assert.Equal(t, "new-hash", got.PasswordHash)

	admins, err := repo.CountByRole(ctx, models.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, admins)

	assert.ErrorIs(t, repo.UpdateRole(ctx, "missing", models.UserRoleMember), pkg.ErrNotFound)
}

func TestUserRepo_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")
	other := createUser(t, db, "bob@example.com")

	goal := &models.Goal{UserID: user.ID, Title: "Ship"}
	require.NoError(t, NewSQLiteGoalRepo(db).Create(ctx, goal))

	question := &models.Question{AuthorID: &user.ID, Title: "How?", Body: "Tell me"}
	require.NoError(t, NewSQLiteQuestionRepo(db).Create(ctx, question))
	answer := &models.Answer{QuestionID: question.ID, AuthorID: &other.ID, Body: "Like this"}
	require.NoError(t, NewSQLiteAnswerRepo(db).Create(ctx, answer))

	require.NoError(t, NewSQLiteUserRepo(db).Delete(ctx, user.ID))

	_, err := NewSQLiteGoalRepo(db).GetByID(ctx, goal.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	q, err := NewSQLiteQuestionRepo(db).GetByID(ctx, question.ID)
	require.NoError(t, err)
	assert.Nil(t, q.AuthorID)
	assert.Nil(t, q.AuthorName)
	assert.Equal(t, 1, q.AnswerCount)
}

func TestUserRepo_GetMany(t *testing.T) {
	db := newTestDB(t)
	a := createUser(t, db, "a@example.com")
	b := createUser(t, db, "b@example.com")
	createUser(t, db, "c@example.com")

	users, err := NewSQLiteUserRepo(db).GetMany(context.Background(), []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	ids, err := NewSQLiteUserRepo(db).ListIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}
