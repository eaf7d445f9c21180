package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/models"
)

const testWeek = "2026-10-12"

func TestGoalRepo_ListAndCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteGoalRepo(db)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")
	other := createUser(t, db, "bob@example.com")

	active := &models.Goal{UserID: user.ID, Title: "Run"}
	done := &models.Goal{UserID: user.ID, Title: "Read", Status: models.GoalCompleted}
	theirs := &models.Goal{UserID: other.ID, Title: "Cook"}
	for _, g := range []*models.Goal{active, done, theirs} {
		require.NoError(t, repo.Create(ctx, g))
	}

	all, err := repo.ListByUser(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := repo.ListByUser(ctx, user.ID, models.GoalActive)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)

	count, err := repo.CountActive(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	byUser, err := repo.ListActiveByUsers(ctx, []string{user.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, byUser[user.ID], 1)
	assert.Len(t, byUser[other.ID], 1)

	active.Title = "Run a 10k"
	active.TargetDate = strPtr("2026-12-01")
	require.NoError(t, repo.Update(ctx, active))
	got, err := repo.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run a 10k", got.Title)
	assert.Equal(t, "2026-12-01", *got.TargetDate)
}

func TestTaskRepo_PositionsAndCompletion(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")

	first := &models.WeeklyTask{UserID: user.ID, Title: "One", WeekStart: testWeek}
	second := &models.WeeklyTask{UserID: user.ID, Title: "Two", WeekStart: testWeek}
	nextWeek := &models.WeeklyTask{UserID: user.ID, Title: "Later", WeekStart: "2026-10-19"}
	for _, task := range []*models.WeeklyTask{first, second, nextWeek} {
		require.NoError(t, repo.Create(ctx, task))
	}
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, 0, nextWeek.Position)

	require.NoError(t, repo.SetCompleted(ctx, first.ID, true, time.Now()))

	tasks, err := repo.ListByUserWeek(ctx, user.ID, testWeek)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.True(t, tasks[0].Completed)
	assert.NotNil(t, tasks[0].CompletedAt)
	assert.False(t, tasks[1].Completed)

	counts, err := repo.CountByUserWeek(ctx, user.ID, testWeek)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCounts{Total: 2, Completed: 1}, counts)

	require.NoError(t, repo.SetCompleted(ctx, first.ID, false, time.Now()))
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)

	byUser, err := repo.CountByUsersWeek(ctx, []string{user.ID, "nobody"}, testWeek)
	require.NoError(t, err)
	assert.Equal(t, 2, byUser[user.ID].Total)
	assert.Zero(t, byUser["nobody"].Total)
}

func TestTaskRepo_GoalDeletionUnlinks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")

	goal := &models.Goal{UserID: user.ID, Title: "Run"}
	require.NoError(t, NewSQLiteGoalRepo(db).Create(ctx, goal))
	task := &models.WeeklyTask{UserID: user.ID, GoalID: &goal.ID, Title: "Jog", WeekStart: testWeek}
	require.NoError(t, NewSQLiteTaskRepo(db).Create(ctx, task))

	require.NoError(t, NewSQLiteGoalRepo(db).Delete(ctx, goal.ID))

	got, err := NewSQLiteTaskRepo(db).GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GoalID)
}

func TestReflectionRepo_UpsertIsUniquePerWeek(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteReflectionRepo(db)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")

	first := &models.Reflection{UserID: user.ID, WeekStart: testWeek, Wins: "a", Rating: 3}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.Reflection{UserID: user.ID, WeekStart: testWeek, Wins: "b", Rating: 5, Shared: true}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID, "same row updated")

	got, err := repo.GetByUserWeek(ctx, user.ID, testWeek)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Wins)
	assert.Equal(t, 5, got.Rating)
	assert.True(t, got.Shared)

	require.NoError(t, repo.Upsert(ctx, &models.Reflection{UserID: user.ID, WeekStart: "2026-10-05", Rating: 2}))
	history, err := repo.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, testWeek, history[0].WeekStart)

	shared, err := repo.ListSharedByUsers(ctx, []string{user.ID}, testWeek)
	require.NoError(t, err)
	assert.NotNil(t, shared[user.ID])

	shared, err = repo.ListSharedByUsers(ctx, []string{user.ID}, "2026-10-05")
	require.NoError(t, err)
	assert.Nil(t, shared[user.ID], "private reflection is not shared")
}

func TestReflectionRepo_ClaimShareNotificationOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteReflectionRepo(db)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")
	now := time.Now()

	private := &models.Reflection{UserID: user.ID, WeekStart: testWeek, Rating: 3}
	require.NoError(t, repo.Upsert(ctx, private))

	claimed, err := repo.ClaimShareNotification(ctx, private.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed, "unshared reflections are never claimed")

	shared := &models.Reflection{UserID: user.ID, WeekStart: testWeek, Rating: 3, Shared: true}
	require.NoError(t, repo.Upsert(ctx, shared))

	claimed, err = repo.ClaimShareNotification(ctx, shared.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	// The stamp survives an unshare and a reshare.
	shared.Shared = false
	require.NoError(t, repo.Upsert(ctx, shared))
	shared.Shared = true
	require.NoError(t, repo.Upsert(ctx, shared))

	claimed, err = repo.ClaimShareNotification(ctx, shared.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed)
}
