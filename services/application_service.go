package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/repository"
)

// ApplicationService handles the public intake form and the admin review
// queue.
type ApplicationService interface {
	Submit(ctx context.Context, req *models.SubmitApplicationRequest) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) (*ApplicationPage, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	// Review moves an application to a new status and emails the applicant
	// the matching template. Moving back to pending sends nothing.
	Review(ctx context.Context, adminID, id string, req *models.ReviewApplicationRequest) (*models.Application, error)
}

// ApplicationPage is one page of the admin application list.
type ApplicationPage struct {
	Applications []models.Application `json:"applications"`
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// openApplicationStatuses block a second submission from the same email.
var openApplicationStatuses = []models.ApplicationStatus{
	models.ApplicationPending,
	models.ApplicationApproved,
	models.ApplicationWaitlisted,
}

type applicationService struct {
	appRepo   repository.ApplicationRepository
	templates TemplateService
	audit     AuditService
	appURL    string
	log       *zap.Logger
}

// NewApplicationService is the constructor.
func NewApplicationService(
	appRepo repository.ApplicationRepository,
	templates TemplateService,
	audit AuditService,
	appURL string,
	log *zap.Logger,
) ApplicationService {
	return &applicationService{
		appRepo:   appRepo,
		templates: templates,
		audit:     audit,
		appURL:    appURL,
		log:       log.Named("applications"),
	}
}

func (s *applicationService) Submit(ctx context.Context, req *models.SubmitApplicationRequest) (*models.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	existing, err := s.appRepo.FindLatestByEmail(ctx, req.Email, openApplicationStatuses...)
	if err == nil {
		return nil, fmt.Errorf("%w: an application for this email is already %s", pkg.ErrAlreadyExists, existing.Status)
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	app := req.ToApplication()
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.log.Info("application submitted", zap.String("application_id", app.ID))

	sendBestEffort(ctx, s.templates, s.log, models.TemplateApplicationReceived, app.Email, map[string]string{
		"full_name": app.FullName,
	})

	return app, nil
}

func (s *applicationService) List(ctx context.Context, filter models.ApplicationFilter) (*ApplicationPage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	apps, total, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.Application{}
	}

	return &ApplicationPage{
		Applications: apps,
		Total:        total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}, nil
}

func (s *applicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	return s.appRepo.GetByID(ctx, id)
}

func (s *applicationService) Review(ctx context.Context, adminID, id string, req *models.ReviewApplicationRequest) (*models.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status == req.Status {
		return nil, fmt.Errorf("%w: application is already %s", pkg.ErrBadRequest, req.Status)
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	if err := s.appRepo.UpdateReview(ctx, id, req.Status, notes, adminID, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, adminID, models.AuditApplicationReview, "application", id, map[string]any{
		"from": string(app.Status),
		"to":   string(req.Status),
	})

	if req.Status != models.ApplicationPending {
		sendBestEffort(ctx, s.templates, s.log, models.ApplicationTemplateKey(req.Status), app.Email, map[string]string{
			"full_name":   app.FullName,
			"signup_url":  s.appURL + "/signup?email=" + url.QueryEscape(app.Email),
			"admin_notes": req.Notes,
		})
	}

	return s.appRepo.GetByID(ctx, id)
}
