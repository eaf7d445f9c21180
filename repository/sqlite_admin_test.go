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

func TestTemplateRepo_SeededAndUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteTemplateRepo(db)
	ctx := context.Background()
	admin := createUser(t, db, "admin@example.com")

	templates, err := repo.List(ctx)
	require.NoError(t, err)
	keys := make([]string, 0, len(templates))
	for _, tpl := range templates {
		keys = append(keys, tpl.Key)
	}
	assert.ElementsMatch(t, []string{
		models.TemplateApplicationReceived,
		models.TemplateApplicationApproved,
		models.TemplateApplicationRejected,
		models.TemplateApplicationWaitlisted,
		models.TemplatePasswordReset,
		models.TemplateNewQuestion,
		models.TemplateNewAnswer,
		models.TemplateDigest,
		models.TemplateDeletionProcessed,
		models.TemplateReflectionShared,
	}, keys)

	require.NoError(t, repo.Update(ctx, models.TemplatePasswordReset, "Reset", "<p>{{reset_url}}</p>", admin.ID))

	got, err := repo.GetByKey(ctx, models.TemplatePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "Reset", got.Subject)
	require.NotNil(t, got.UpdatedBy)
	assert.Equal(t, admin.ID, *got.UpdatedBy)

	_, err = repo.GetByKey(ctx, "nope")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, "nope", "s", "b", admin.ID), pkg.ErrNotFound)
}

func TestAuditRepo_FilterAndDetails(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteAuditRepo(db)
	ctx := context.Background()
	admin := createUser(t, db, "admin@example.com")

	require.NoError(t, repo.Create(ctx, &models.AuditEntry{
		ActorID: &admin.ID, Action: models.AuditGroupCreate, EntityType: "group", EntityID: "g1",
		Details: map[string]any{"name": "Morning"},
	}))
	require.NoError(t, repo.Create(ctx, &models.AuditEntry{
		ActorID: &admin.ID, Action: models.AuditMemberRole, EntityType: "user", EntityID: "u1",
	}))

	entries, total, err := repo.List(ctx, models.AuditFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, models.AuditMemberRole, entries[0].Action, "newest first")

	groups, total, err := repo.List(ctx, models.AuditFilter{EntityType: "group", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Morning", groups[0].Details["name"])

	byActor, _, err := repo.List(ctx, models.AuditFilter{ActorID: admin.ID, Action: models.AuditMemberRole, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, byActor, 1)
}

func TestDeletionRepo_OnePendingPerUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteDeletionRepo(db)
	ctx := context.Background()
	user := createUser(t, db, "ada@example.com")
	admin := createUser(t, db, "admin@example.com")

	first := &models.DeletionRequest{UserID: &user.ID, Email: user.Email, Reason: strPtr("moving on")}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.DeletionRequest{UserID: &user.ID, Email: user.Email}
	assert.ErrorIs(t, repo.Create(ctx, second), pkg.ErrAlreadyExists)

	require.NoError(t, repo.Resolve(ctx, first.ID, models.DeletionRejected, strPtr("stay"), admin.ID, time.Now()))
	assert.ErrorIs(t, repo.Resolve(ctx, first.ID, models.DeletionCompleted, nil, admin.ID, time.Now()), pkg.ErrNotFound)

	require.NoError(t, repo.Create(ctx, second), "a new request is allowed once the old one is resolved")

	pending, err := repo.List(ctx, models.DeletionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	mine, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	require.NoError(t, NewSQLiteUserRepo(db).Delete(ctx, user.ID))
	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
	assert.Equal(t, "ada@example.com", got.Email, "email snapshot survives")
}
