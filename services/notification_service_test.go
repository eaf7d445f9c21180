package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

func questionNotification(recipients ...string) Notification {
	return Notification{
		Kind:       models.KindQuestion,
		Recipients: recipients,
		Template:   models.TemplateNewQuestion,
		Vars: map[string]string{
			"author_name":      "Ada",
			"question_title":   "How do you plan?",
			"question_excerpt": "Weekly or daily?",
			"link":             testAppURL + "/questions/q1",
		},
		Subject: "New question: How do you plan?",
		Summary: "Ada asked: Weekly or daily?",
		Link:    testAppURL + "/questions/q1",
	}
}

func TestPreferences_DefaultsAndPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "alice@circle.test")

	prefs, err := env.notifier.Preferences(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyInstant, prefs.Frequency)
	assert.True(t, prefs.Questions)
	assert.True(t, prefs.Answers)
	assert.True(t, prefs.GroupActivity)

	off := false
	updated, err := env.notifier.UpdatePreferences(ctx, alice.ID, &models.UpdatePreferencesRequest{Answers: &off})
	require.NoError(t, err)
	assert.False(t, updated.Answers)
	assert.True(t, updated.Questions)

	weekly := models.EmailFrequency("weekly")
	_, err = env.notifier.UpdatePreferences(ctx, alice.ID, &models.UpdatePreferencesRequest{Frequency: &weekly})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	stored, err := env.notifier.Preferences(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, stored.Answers)
	assert.Equal(t, models.FrequencyInstant, stored.Frequency)
}

func TestDispatch_RoutesByPreference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.member(t, "author@circle.test")
	instant := env.member(t, "instant@circle.test")
	digest := env.member(t, "digest@circle.test")
	silent := env.member(t, "silent@circle.test")
	optedOut := env.member(t, "optedout@circle.test")

	env.setFrequency(t, digest.ID, models.FrequencyDigest)
	env.setFrequency(t, silent.ID, models.FrequencyOff)
	off := false
	_, err := env.notifier.UpdatePreferences(ctx, optedOut.ID, &models.UpdatePreferencesRequest{Questions: &off})
	require.NoError(t, err)

	n := questionNotification(author.ID, instant.ID, instant.ID, digest.ID, silent.ID, optedOut.ID, "")
	n.ExcludeUserID = author.ID

	result, err := env.notifier.Dispatch(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Instant: 1, Digest: 1, Skipped: 2}, *result)

	sent := env.sender.Tagged(models.TemplateNewQuestion)
	require.Len(t, sent, 1)
	assert.Equal(t, instant.Email, sent[0].To)
	assert.Contains(t, sent[0].HTML, instant.FullName)
	assert.Empty(t, env.sender.To(author.Email), "the actor is never notified")

	queued, err := env.notifications.ListPendingByUser(ctx, digest.ID)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, n.Subject, queued[0].Subject)
	assert.Equal(t, n.Link, queued[0].Link)
}

func TestDispatch_SendFailureIsCounted(t *testing.T) {
	env := newTestEnv(t)
	alice := env.member(t, "alice@circle.test")
	env.sender.fail = errors.New("provider down")

	result, err := env.notifier.Dispatch(context.Background(), questionNotification(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Instant)
}

func TestDispatch_NoRecipients(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.notifier.Dispatch(context.Background(), questionNotification())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, *result)
}

func TestUniqueRecipients(t *testing.T) {
	got := uniqueRecipients([]string{"b", "a", "", "b", "me", "c"}, "me")
	assert.Equal(t, []string{"b", "a", "c"}, got)
}
