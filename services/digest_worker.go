package services

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg/metrics"
	"github.com/akinalp/circle/repository"
)

// DigestWorker sends queued notifications to digest subscribers on a cron
// schedule.
type DigestWorker interface {
	// Start schedules Flush. It fails when the schedule does not parse.
	Start() error
	// Stop cancels the schedule and waits for a running flush.
	Stop()
	// Flush sends one digest per user with unsent items and returns the
	// number of digests delivered.
	Flush(ctx context.Context) (int, error)
}

// DigestResult summarises one flush run.
type DigestResult struct {
	Sent   int
	Failed int
	Pruned int64
}

type digestWorker struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	templates        TemplateService
	appURL           string
	schedule         string
	retention        time.Duration

	cron    *cron.Cron
	mu      sync.Mutex // serializes Flush runs
	started bool
	log     *zap.Logger
}

// NewDigestWorker is the constructor. schedule is a standard five-field
// cron expression evaluated in UTC; retentionDays bounds how long sent items are
// kept.
func NewDigestWorker(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	templates TemplateService,
	appURL string,
	schedule string,
	retentionDays int,
	log *zap.Logger,
) DigestWorker {
	return &digestWorker{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		templates:        templates,
		appURL:           appURL,
		schedule:         schedule,
		retention:        time.Duration(retentionDays) * 24 * time.Hour,
		cron:             cron.New(cron.WithLocation(time.UTC)),
		log:              log.Named("digest"),
	}
}

func (w *digestWorker) Start() error {
	if _, err := cron.ParseStandard(w.schedule); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", w.schedule, err)
	}

	_, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := w.Flush(ctx); err != nil {
			w.log.Error("digest run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule digest: %w", err)
	}

	w.cron.Start()
	w.started = true
	w.log.Info("digest scheduler started", zap.String("schedule", w.schedule))
	return nil
}

func (w *digestWorker) Stop() {
	if !w.started {
		return
	}
	<-w.cron.Stop().Done()
	w.log.Info("digest scheduler stopped")
}

func (w *digestWorker) Flush(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res, err := w.flush(ctx)
	metrics.DigestRun(err)
	if err != nil {
		return 0, err
	}

	w.log.Info("digest run finished",
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int64("pruned", res.Pruned),
	)
	return res.Sent, nil
}

func (w *digestWorker) flush(ctx context.Context) (*DigestResult, error) {
	res := &DigestResult{}

	userIDs, err := w.notificationRepo.ListPendingUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list digest recipients: %w", err)
	}

	if len(userIDs) > 0 {
		users, err := w.userRepo.GetMany(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load digest recipients: %w", err)
		}

		for i := range users {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := w.sendDigest(ctx, &users[i]); err != nil {
				res.Failed++
				w.log.Warn("digest not sent, items stay queued",
					zap.String("user_id", users[i].ID),
					zap.Error(err),
				)
				continue
			}
			res.Sent++
		}
	}

	if w.retention > 0 {
		pruned, err := w.notificationRepo.PruneSent(ctx, time.Now().UTC().Add(-w.retention))
		if err != nil {
			w.log.Warn("failed to prune sent notifications", zap.Error(err))
		} else {
			res.Pruned = pruned
		}
	}

	return res, nil
}

// sendDigest mails the pending items of one user, then marks them sent.
// Items are only marked after a successful send.
func (w *digestWorker) sendDigest(ctx context.Context, user *models.User) error {
	items, err := w.notificationRepo.ListPendingByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	vars := map[string]string{
		"recipient_name": user.FullName,
		"count":          strconv.Itoa(len(items)),
		"items_html":     digestItemsHTML(items),
		"app_url":        w.appURL,
	}
	if err := w.templates.Send(ctx, models.TemplateDigest, user.Email, vars); err != nil {
		return err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return w.notificationRepo.MarkSent(ctx, ids, time.Now().UTC())
}

// digestItemsHTML renders queue items as <li> elements. Every stored value
// is escaped because the template inserts the list verbatim.
func digestItemsHTML(items []models.QueuedNotification) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("<li>")
		if item.Link != "" {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(item.Link), html.EscapeString(item.Subject))
		} else {
			b.WriteString(html.EscapeString(item.Subject))
		}
		if item.Summary != "" {
			b.WriteString("<br>")
			b.WriteString(html.EscapeString(item.Summary))
		}
		b.WriteString("</li>")
	}
	return b.String()
}
