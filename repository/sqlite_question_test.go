package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

func TestQuestionRepo_Visibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteQuestionRepo(db)
	user := createUser(t, db, "ada@example.com")

	mine := &models.Group{Name: "Mine", Capacity: 8}
	theirs := &models.Group{Name: "Theirs", Capacity: 8}
	require.NoError(t, NewSQLiteGroupRepo(db).Create(ctx, mine))
	require.NoError(t, NewSQLiteGroupRepo(db).Create(ctx, theirs))

	community := &models.Question{AuthorID: &user.ID, Title: "Community", Body: "x"}
	groupQ := &models.Question{AuthorID: &user.ID, GroupID: &mine.ID, Title: "Ours", Body: "x"}
	otherQ := &models.Question{AuthorID: &user.ID, GroupID: &theirs.ID, Title: "Theirs", Body: "x"}
	for _, q := range []*models.Question{community, groupQ, otherQ} {
		require.NoError(t, repo.Create(ctx, q))
	}

	noGroup, err := repo.ListVisible(ctx, nil, 50, 0)
	require.NoError(t, err)
	require.Len(t, noGroup, 1)
	assert.Equal(t, community.ID, noGroup[0].ID)

	withGroup, err := repo.ListVisible(ctx, &mine.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, withGroup, 2)
	assert.Equal(t, groupQ.ID, withGroup[0].ID, "newest first")
	assert.Equal(t, "User ada@example.com", *withGroup[0].AuthorName)
}

func TestAnswerRepo_AuthorsAndCascade(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := NewSQLiteQuestionRepo(db)
	answers := NewSQLiteAnswerRepo(db)
	a := createUser(t, db, "a@example.com")
	b := createUser(t, db, "b@example.com")

	q := &models.Question{AuthorID: &a.ID, Title: "Why?", Body: "x"}
	require.NoError(t, questions.Create(ctx, q))

	for _, author := range []*models.User{b, b, a} {
		require.NoError(t, answers.Create(ctx, &models.Answer{QuestionID: q.ID, AuthorID: &author.ID, Body: "because"}))
	}

	authors, err := answers.ListAuthorIDs(ctx, q.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, authors)

	list, err := answers.ListByQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	err = answers.Create(ctx, &models.Answer{QuestionID: "missing", AuthorID: &a.ID, Body: "x"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	require.NoError(t, questions.Delete(ctx, q.ID))
	_, err = answers.GetByID(ctx, list[0].ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
