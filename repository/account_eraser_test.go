package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

func TestAccountEraser_RemovesPersonalDataKeepsAuthoredContent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	admin := createUser(t, db, "admin@example.com")
	member := createUser(t, db, "leaving@example.com")

	app := &models.Application{
		FullName: "Leaving Member", Email: member.Email,
		Motivation: "I want to grow with peers every week", Commitment: "weekly",
		Status: models.ApplicationApproved,
	}
	require.NoError(t, NewSQLiteApplicationRepo(db).Create(ctx, app))

	goal := &models.Goal{UserID: member.ID, Title: "Run a marathon"}
	require.NoError(t, NewSQLiteGoalRepo(db).Create(ctx, goal))

	question := &models.Question{AuthorID: &member.ID, Title: "How do you plan?", Body: "Curious."}
	require.NoError(t, NewSQLiteQuestionRepo(db).Create(ctx, question))

	deletions := NewSQLiteDeletionRepo(db)
	req := &models.DeletionRequest{UserID: &member.ID, Email: member.Email}
	require.NoError(t, deletions.Create(ctx, req))

	eraser := NewSQLiteAccountEraser(db)
	require.NoError(t, eraser.Erase(ctx, req.ID, member.ID, admin.ID, strPtr("done"), time.Now()))

	_, err := NewSQLiteUserRepo(db).GetByID(ctx, member.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = NewSQLiteApplicationRepo(db).GetByID(ctx, app.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = NewSQLiteGoalRepo(db).GetByID(ctx, goal.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	q, err := NewSQLiteQuestionRepo(db).GetByID(ctx, question.ID)
	require.NoError(t, err)
	assert.Nil(t, q.AuthorID)

	resolved, err := deletions.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeletionCompleted, resolved.Status)
	assert.Nil(t, resolved.UserID)
	assert.Equal(t, member.Email, resolved.Email)
}

func TestAccountEraser_RollsBackWhenRequestNotPending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	admin := createUser(t, db, "admin@example.com")
	member := createUser(t, db, "stays@example.com")

	deletions := NewSQLiteDeletionRepo(db)
	req := &models.DeletionRequest{UserID: &member.ID, Email: member.Email}
	require.NoError(t, deletions.Create(ctx, req))
	require.NoError(t, deletions.Resolve(ctx, req.ID, models.DeletionRejected, nil, admin.ID, time.Now()))

	err := NewSQLiteAccountEraser(db).Erase(ctx, req.ID, member.ID, admin.ID, nil, time.Now())
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = NewSQLiteUserRepo(db).GetByID(ctx, member.ID)
	assert.NoError(t, err)
}
