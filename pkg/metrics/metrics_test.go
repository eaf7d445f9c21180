package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEmailSent_CountsByResult(t *testing.T) {
	before := testutil.ToFloat64(emailsSent.WithLabelValues("password_reset", "error"))

	EmailSent("password_reset", errors.New("boom"))
	EmailSent("password_reset", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(emailsSent.WithLabelValues("password_reset", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(emailsSent.WithLabelValues("password_reset", "ok")), 1.0)
}

func TestNotificationRouted(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("qa_new_answer", "digest"))

	NotificationRouted("qa_new_answer", "digest")

	assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues("qa_new_answer", "digest")))
}
