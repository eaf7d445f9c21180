package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/pkg/cache"
	"github.com/akinalp/circle/pkg/email"
	"github.com/akinalp/circle/pkg/metrics"
	"github.com/akinalp/circle/repository"
)

// TemplateService owns the editable email templates and is the only place
// that sends transactional email.
type TemplateService interface {
	List(ctx context.Context) ([]models.EmailTemplate, error)
	Get(ctx context.Context, key string) (*models.EmailTemplate, error)
	Update(ctx context.Context, adminID, key string, req *models.UpdateTemplateRequest) (*models.EmailTemplate, error)
	// Preview renders a template, or unsaved edits of it, with sample values
	// for every variable the caller did not supply.
	Preview(ctx context.Context, key string, req *models.PreviewTemplateRequest) (*models.RenderedEmail, error)
	Render(ctx context.Context, key string, vars map[string]string) (*models.RenderedEmail, error)
	// Send renders key and delivers it to one recipient.
	Send(ctx context.Context, key, to string, vars map[string]string) error
	Close()
}

const templateCacheTTL = 5 * time.Minute

// previewSamples fills variables a preview request left out.
var previewSamples = map[string]string{
	"full_name":        "Jane Doe",
	"recipient_name":   "Jane Doe",
	"author_name":      "Alex Smith",
	"signup_url":       "https://example.com/signup",
	"reset_url":        "https://example.com/reset-password?token=sample",
	"expires_minutes":  "20",
	"admin_notes":      "Thanks for applying.",
	"question_title":   "How do you keep a morning routine?",
	"question_excerpt": "I keep falling off after a week…",
	"answer_excerpt":   "Start with one habit and stack the next on top.",
	"link":             "https://example.com/questions/sample",
	"count":            "3",
	"items_html":       `<li><a href="https://example.com/questions/sample">New question: How do you keep a morning routine?</a></li>`,
	"app_url":          "https://example.com",
	"week":             "2026-10-12",
}

type templateService struct {
	templateRepo repository.TemplateRepository
	sender       email.Sender
	audit        AuditService
	cache        *cache.TTLCache[string, *models.EmailTemplate]
	log          *zap.Logger
}

// NewTemplateService is the constructor. Templates are cached for a few
// minutes and evicted as soon as an admin edits them.
func NewTemplateService(
	templateRepo repository.TemplateRepository,
	sender email.Sender,
	audit AuditService,
	log *zap.Logger,
) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		sender:       sender,
		audit:        audit,
		cache:        cache.New[string, *models.EmailTemplate](templateCacheTTL, time.Minute),
		log:          log.Named("email"),
	}
}

func (s *templateService) List(ctx context.Context) ([]models.EmailTemplate, error) {
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (s *templateService) Get(ctx context.Context, key string) (*models.EmailTemplate, error) {
	return s.cache.GetOrLoad(key, func() (*models.EmailTemplate, error) {
		return s.templateRepo.GetByKey(ctx, key)
	})
}

func (s *templateService) Update(ctx context.Context, adminID, key string, req *models.UpdateTemplateRequest) (*models.EmailTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.templateRepo.Update(ctx, key, req.Subject, req.Body, adminID); err != nil {
		return nil, err
	}
	s.cache.Delete(key)

	s.audit.Record(ctx, adminID, models.AuditTemplateUpdate, "email_template", key, map[string]any{
		"subject": req.Subject,
	})

	return s.Get(ctx, key)
}

func (s *templateService) Preview(ctx context.Context, key string, req *models.PreviewTemplateRequest) (*models.RenderedEmail, error) {
	tpl, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	subject, body := tpl.Subject, tpl.Body
	if req.Subject != nil {
		subject = *req.Subject
	}
	if req.Body != nil {
		body = *req.Body
	}

	vars := make(map[string]string, len(previewSamples)+len(req.Vars))
	for k, v := range previewSamples {
		vars[k] = v
	}
	for k, v := range req.Vars {
		vars[k] = v
	}

	return &models.RenderedEmail{
		Subject: email.Render(subject, vars),
		HTML:    email.RenderBody(body, vars),
	}, nil
}

func (s *templateService) Render(ctx context.Context, key string, vars map[string]string) (*models.RenderedEmail, error) {
	tpl, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", key, err)
	}

	return &models.RenderedEmail{
		Subject: email.Render(tpl.Subject, vars),
		HTML:    email.RenderBody(tpl.Body, vars),
	}, nil
}

func (s *templateService) Send(ctx context.Context, key, to string, vars map[string]string) error {
	rendered, err := s.Render(ctx, key, vars)
	if err != nil {
		metrics.EmailSent(key, err)
		return err
	}

	err = s.sender.Send(ctx, email.Message{
		To:      to,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Tag:     key,
	})
	metrics.EmailSent(key, err)
	if err != nil {
		if errors.Is(err, email.ErrNoRecipient) {
			return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
		}
		return err
	}
	return nil
}

func (s *templateService) Close() {
	s.cache.Close()
}

// sendBestEffort delivers an email whose failure must not fail the caller's
// operation. Errors are logged with the template key.
func sendBestEffort(ctx context.Context, templates TemplateService, log *zap.Logger, key, to string, vars map[string]string) {
	if err := templates.Send(ctx, key, to, vars); err != nil {
		log.Warn("failed to send email",
			zap.String("template", key),
			zap.String("to", to),
			zap.Error(err),
		)
	}
}
