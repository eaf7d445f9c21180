package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/pkg/metrics"
	"github.com/akinalp/circle/repository"
)

// Notification is one event to fan out to a set of members.
//
// Template and Vars drive the instant email; Subject, Summary and Link are
// stored for digest subscribers. recipient_name is added to Vars per
// recipient.
type Notification struct {
	Kind          models.NotificationKind
	Recipients    []string
	ExcludeUserID string
	Template      string
	Vars          map[string]string
	Subject       string
	Summary       string
	Link          string
}

// DispatchResult counts recipients per delivery route.
type DispatchResult struct {
	Instant int `json:"instant"`
	Digest  int `json:"digest"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NotificationService manages email preferences and routes notifications
// to instant email or the digest queue.
type NotificationService interface {
	Preferences(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.NotificationPreferences, error)
	// Dispatch never fails because of a single recipient: send and enqueue
	// errors are logged and counted in the result. It only returns an error
	// when recipients or preferences cannot be loaded.
	Dispatch(ctx context.Context, n Notification) (*DispatchResult, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	templates        TemplateService
	log              *zap.Logger
}

// NewNotificationService is the constructor.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	templates TemplateService,
	log *zap.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		templates:        templates,
		log:              log.Named("notifications"),
	}
}

func (s *notificationService) Preferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	prefs, err := s.notificationRepo.GetPreferences(ctx, userID)
	if errors.Is(err, pkg.ErrNotFound) {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *notificationService) UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.NotificationPreferences, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.Apply(prefs)

	if err := s.notificationRepo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *notificationService) Dispatch(ctx context.Context, n Notification) (*DispatchResult, error) {
	result := &DispatchResult{}

	ids := uniqueRecipients(n.Recipients, n.ExcludeUserID)
	if len(ids) == 0 {
		return result, nil
	}

	users, err := s.userRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipients: %w", err)
	}
	stored, err := s.notificationRepo.GetPreferencesMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	kind := string(n.Kind)
	for i := range users {
		user := &users[i]

		prefs, ok := stored[user.ID]
		if !ok {
			prefs = models.DefaultPreferences(user.ID)
		}

		if !prefs.Enabled(n.Kind) || prefs.Frequency == models.FrequencyOff {
			result.Skipped++
			metrics.NotificationRouted(kind, "skipped")
			continue
		}

		switch prefs.Frequency {
		case models.FrequencyDigest:
			item := &models.QueuedNotification{
				UserID:  user.ID,
				Kind:    n.Kind,
				Subject: n.Subject,
				Summary: n.Summary,
				Link:    n.Link,
			}
			if err := s.notificationRepo.Enqueue(ctx, item); err != nil {
				result.Failed++
				s.log.Error("failed to queue notification",
					zap.String("user_id", user.ID),
					zap.String("kind", kind),
					zap.Error(err),
				)
				continue
			}
			result.Digest++
			metrics.NotificationRouted(kind, "digest")

		default:
			vars := make(map[string]string, len(n.Vars)+1)
			for k, v := range n.Vars {
				vars[k] = v
			}
			vars["recipient_name"] = user.FullName

			if err := s.templates.Send(ctx, n.Template, user.Email, vars); err != nil {
				result.Failed++
				s.log.Warn("failed to send instant notification",
					zap.String("user_id", user.ID),
					zap.String("kind", kind),
					zap.Error(err),
				)
				continue
			}
			result.Instant++
			metrics.NotificationRouted(kind, "instant")
		}
	}

	s.log.Debug("notification dispatched",
		zap.String("kind", kind),
		zap.Int("instant", result.Instant),
		zap.Int("digest", result.Digest),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// uniqueRecipients drops duplicates, empty ids and the acting user while
// keeping the original order.
func uniqueRecipients(ids []string, exclude string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
