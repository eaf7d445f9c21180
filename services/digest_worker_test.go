package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
)

func TestDigest_FlushSendsAndMarksSent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	asker := env.member(t, "asker@circle.test")
	reader := env.member(t, "reader@circle.test")
	env.setFrequency(t, reader.ID, models.FrequencyDigest)

	for _, title := range []string{"First <question>", "Second question"} {
		_, err := env.qa.CreateQuestion(ctx, asker, &models.CreateQuestionRequest{Title: title, Body: "body"})
		require.NoError(t, err)
	}

	sent, err := env.digest.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	digests := env.sender.Tagged(models.TemplateDigest)
	require.Len(t, digests, 1)
	assert.Equal(t, reader.Email, digests[0].To)
	assert.Contains(t, digests[0].HTML, "First &lt;question&gt;")
	assert.NotContains(t, digests[0].HTML, "<question>")
	assert.Contains(t, digests[0].HTML, "Second question")

	pending, err := env.notifications.ListPendingByUser(ctx, reader.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	sent, err = env.digest.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent, "nothing left to send")
}

func TestDigest_FailedSendKeepsItemsQueued(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reader := env.member(t, "reader@circle.test")
	require.NoError(t, env.notifications.Enqueue(ctx, &models.QueuedNotification{
		UserID:  reader.ID,
		Kind:    models.KindAnswer,
		Subject: "New answer",
	}))

	env.sender.fail = errors.New("provider down")
	sent, err := env.digest.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	pending, err := env.notifications.ListPendingByUser(ctx, reader.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	env.sender.fail = nil
	sent, err = env.digest.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestDigest_StartRejectsInvalidSchedule(t *testing.T) {
	env := newTestEnv(t)
	worker := NewDigestWorker(env.notifications, env.users, env.templates, testAppURL, "every morning", 30, zap.NewNop())

	assert.Error(t, worker.Start())
	worker.Stop()
}

func TestDigest_StartAndStop(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.digest.Start())

	done := make(chan struct{})
	go func() {
		env.digest.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("digest scheduler did not stop")
	}
}

func TestDigestItemsHTML(t *testing.T) {
	html := digestItemsHTML([]models.QueuedNotification{
		{Subject: "Plain", Summary: "a & b"},
		{Subject: "Linked", Link: "https://circle.test/q?id=1&x=2"},
	})

	assert.Equal(t,
		`<li>Plain<br>a &amp; b</li><li><a href="https://circle.test/q?id=1&amp;x=2">Linked</a></li>`,
		html,
	)
}
