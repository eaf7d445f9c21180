package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/ws"
)

func TestQA_CommunityQuestionReachesEveryone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	asker := env.member(t, "asker@circle.test")
	reader := env.member(t, "reader@circle.test")
	batched := env.member(t, "batched@circle.test")
	env.setFrequency(t, batched.ID, models.FrequencyDigest)

	q, err := env.qa.CreateQuestion(ctx, asker, &models.CreateQuestionRequest{
		Title: "  How do you keep streaks?  ",
		Body:  "I lose momentum every third week.",
	})
	require.NoError(t, err)
	assert.Equal(t, "How do you keep streaks?", q.Title)
	assert.Nil(t, q.GroupID)
	require.NotNil(t, q.AuthorName)
	assert.Equal(t, asker.FullName, *q.AuthorName)

	events := env.hub.Op(ws.OpQuestionCreate)
	require.Len(t, events, 1)
	assert.True(t, events[0].All)

	sent := env.sender.Tagged(models.TemplateNewQuestion)
	require.Len(t, sent, 1)
	assert.Equal(t, reader.Email, sent[0].To)
	assert.Contains(t, sent[0].HTML, testAppURL+"/questions/"+q.ID)

	queued, err := env.notifications.ListPendingByUser(ctx, batched.ID)
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	list, err := env.qa.ListQuestions(ctx, reader, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)
}

func TestQA_GroupQuestionsStayInTheGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "alice@circle.test")
	bob := env.member(t, "bob@circle.test")
	outsider := env.member(t, "outsider@circle.test")
	admin := env.admin(t, "admin@circle.test")
	env.group(t, "Writers", alice, bob)

	_, err := env.qa.CreateQuestion(ctx, outsider, &models.CreateQuestionRequest{Title: "Group only?", Body: "x", GroupOnly: true})
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "no group to scope to")

	q, err := env.qa.CreateQuestion(ctx, alice, &models.CreateQuestionRequest{Title: "Our next meeting", Body: "Tuesday?", GroupOnly: true})
	require.NoError(t, err)
	require.NotNil(t, q.GroupID)

	events := env.hub.Op(ws.OpQuestionCreate)
	require.Len(t, events, 1)
	assert.False(t, events[0].All)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, events[0].Users)

	sent := env.sender.Tagged(models.TemplateNewQuestion)
	require.Len(t, sent, 1)
	assert.Equal(t, bob.Email, sent[0].To)

	_, err = env.qa.GetQuestion(ctx, outsider, q.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = env.qa.CreateAnswer(ctx, outsider, q.ID, &models.CreateAnswerRequest{Body: "sneaky"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	visible, err := env.qa.ListQuestions(ctx, outsider, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, visible)

	thread, err := env.qa.GetQuestion(ctx, admin, q.ID)
	require.NoError(t, err)
	assert.Empty(t, thread.Answers)
	assert.NotNil(t, thread.Answers)
}

func TestQA_AnswersNotifyThreadParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	asker := env.member(t, "asker@circle.test")
	first := env.member(t, "first@circle.test")
	second := env.member(t, "second@circle.test")
	bystander := env.member(t, "bystander@circle.test")

	q, err := env.qa.CreateQuestion(ctx, asker, &models.CreateQuestionRequest{Title: "Morning routines", Body: "What works?"})
	require.NoError(t, err)

	_, err = env.qa.CreateAnswer(ctx, first, q.ID, &models.CreateAnswerRequest{Body: "Cold showers"})
	require.NoError(t, err)
	answers := env.sender.Tagged(models.TemplateNewAnswer)
	require.Len(t, answers, 1)
	assert.Equal(t, asker.Email, answers[0].To)

	_, err = env.qa.CreateAnswer(ctx, second, q.ID, &models.CreateAnswerRequest{Body: "Journaling"})
	require.NoError(t, err)
	answers = env.sender.Tagged(models.TemplateNewAnswer)
	require.Len(t, answers, 3)
	recipients := []string{answers[1].To, answers[2].To}
	assert.ElementsMatch(t, []string{asker.Email, first.Email}, recipients)

	for _, m := range answers {
		assert.NotEqual(t, bystander.Email, m.To)
	}

	assert.Len(t, env.hub.Op(ws.OpAnswerCreate), 2)

	thread, err := env.qa.GetQuestion(ctx, bystander, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, thread.AnswerCount)
	assert.Len(t, thread.Answers, 2)
}

func TestQA_AnswersSkipParticipantsWhoLeftTheGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	asker := env.member(t, "asker@circle.test")
	leaver := env.member(t, "leaver@circle.test")
	stayer := env.member(t, "stayer@circle.test")
	admin := env.admin(t, "admin@circle.test")
	g := env.group(t, "Runners", asker, leaver, stayer)

	q, err := env.qa.CreateQuestion(ctx, asker, &models.CreateQuestionRequest{Title: "Race plan", Body: "Pacing?", GroupOnly: true})
	require.NoError(t, err)
	_, err = env.qa.CreateAnswer(ctx, leaver, q.ID, &models.CreateAnswerRequest{Body: "Negative splits"})
	require.NoError(t, err)

	require.NoError(t, env.groupSvc.RemoveMember(ctx, admin.ID, g.ID, leaver.ID))
	before := len(env.sender.Tagged(models.TemplateNewAnswer))

	_, err = env.qa.CreateAnswer(ctx, stayer, q.ID, &models.CreateAnswerRequest{Body: "Even effort"})
	require.NoError(t, err)

	answers := env.sender.Tagged(models.TemplateNewAnswer)[before:]
	require.Len(t, answers, 1)
	assert.Equal(t, asker.Email, answers[0].To)
	for _, m := range env.sender.To(leaver.Email) {
		assert.NotEqual(t, models.TemplateNewAnswer, m.Tag)
	}

	events := env.hub.Op(ws.OpAnswerCreate)
	require.Len(t, events, 2)
	assert.NotContains(t, events[1].Users, leaver.ID)
}

func TestQA_DeletePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	asker := env.member(t, "asker@circle.test")
	other := env.member(t, "other@circle.test")
	admin := env.admin(t, "admin@circle.test")

	q, err := env.qa.CreateQuestion(ctx, asker, &models.CreateQuestionRequest{Title: "Delete me later", Body: "..."})
	require.NoError(t, err)
	a, err := env.qa.CreateAnswer(ctx, other, q.ID, &models.CreateAnswerRequest{Body: "An answer"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.qa.DeleteQuestion(ctx, other, q.ID), pkg.ErrForbidden)
	assert.ErrorIs(t, env.qa.DeleteAnswer(ctx, asker, a.ID), pkg.ErrForbidden)

	require.NoError(t, env.qa.DeleteAnswer(ctx, admin, a.ID))
	deleted := env.hub.Op(ws.OpAnswerDelete)
	require.Len(t, deleted, 1)
	assert.Equal(t, ws.AnswerDeleteData{ID: a.ID, QuestionID: q.ID}, deleted[0].Event.Data)

	require.NoError(t, env.qa.DeleteQuestion(ctx, asker, q.ID))
	assert.Len(t, env.hub.Op(ws.OpQuestionDelete), 1)

	_, err = env.qa.GetQuestion(ctx, asker, q.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestQA_Validation(t *testing.T) {
	env := newTestEnv(t)
	asker := env.member(t, "asker@circle.test")

	_, err := env.qa.CreateQuestion(context.Background(), asker, &models.CreateQuestionRequest{Title: "Hi", Body: "too short a title"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = env.qa.CreateAnswer(context.Background(), asker, "missing", &models.CreateAnswerRequest{Body: "  "})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}
