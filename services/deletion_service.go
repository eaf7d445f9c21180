package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
	"github.com/akinalp/circle/repository"
)

// DeletionService handles account deletion requests. Members ask, admins
// approve or reject; approval erases the account.
type DeletionService interface {
	Request(ctx context.Context, user *models.User, req *models.CreateDeletionRequest) (*models.DeletionRequest, error)
	Mine(ctx context.Context, userID string) ([]models.DeletionRequest, error)
	List(ctx context.Context, status models.DeletionStatus) ([]models.DeletionRequest, error)
	Process(ctx context.Context, adminID, id string, req *models.ProcessDeletionRequest) (*models.DeletionRequest, error)
}

type deletionService struct {
	deletionRepo repository.DeletionRepository
	userRepo     repository.UserRepository
	eraser       repository.AccountEraser
	templates    TemplateService
	audit        AuditService
	log          *zap.Logger
}

// NewDeletionService is the constructor.
func NewDeletionService(
	deletionRepo repository.DeletionRepository,
	userRepo repository.UserRepository,
	eraser repository.AccountEraser,
	templates TemplateService,
	audit AuditService,
	log *zap.Logger,
) DeletionService {
	return &deletionService{
		deletionRepo: deletionRepo,
		userRepo:     userRepo,
		eraser:       eraser,
		templates:    templates,
		audit:        audit,
		log:          log.Named("deletion"),
	}
}

func (s *deletionService) Request(ctx context.Context, user *models.User, req *models.CreateDeletionRequest) (*models.DeletionRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	dr := &models.DeletionRequest{
		UserID: &user.ID,
		Email:  user.Email,
	}
	if req.Reason != "" {
		dr.Reason = &req.Reason
	}

	if err := s.deletionRepo.Create(ctx, dr); err != nil {
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: a deletion request is already pending", pkg.ErrAlreadyExists)
		}
		return nil, err
	}

	s.log.Info("deletion requested", zap.String("request_id", dr.ID), zap.String("user_id", user.ID))
	return dr, nil
}

func (s *deletionService) Mine(ctx context.Context, userID string) ([]models.DeletionRequest, error) {
	requests, err := s.deletionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.DeletionRequest{}
	}
	return requests, nil
}

func (s *deletionService) List(ctx context.Context, status models.DeletionStatus) ([]models.DeletionRequest, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", pkg.ErrBadRequest, status)
	}

	requests, err := s.deletionRepo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.DeletionRequest{}
	}
	return requests, nil
}

func (s *deletionService) Process(ctx context.Context, adminID, id string, req *models.ProcessDeletionRequest) (*models.DeletionRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	dr, err := s.deletionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dr.Status != models.DeletionPending {
		return nil, fmt.Errorf("%w: request is already %s", pkg.ErrBadRequest, dr.Status)
	}

	var note *string
	if req.Note != "" {
		note = &req.Note
	}
	now := time.Now().UTC()

	if !req.Approve {
		if err := s.deletionRepo.Resolve(ctx, id, models.DeletionRejected, note, adminID, now); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, adminID, models.AuditDeletionProcess, "deletion_request", id, map[string]any{
			"approved": false,
		})
		return s.deletionRepo.GetByID(ctx, id)
	}

	if dr.UserID != nil && *dr.UserID == adminID {
		return nil, fmt.Errorf("%w: another admin must process your own deletion", pkg.ErrBadRequest)
	}

	fullName := ""
	if dr.UserID == nil {
		// The account is already gone; only the request needs closing.
		if err := s.deletionRepo.Resolve(ctx, id, models.DeletionCompleted, note, adminID, now); err != nil {
			return nil, err
		}
	} else {
		user, err := s.userRepo.GetByID(ctx, *dr.UserID)
		if err != nil {
			return nil, err
		}
		fullName = user.FullName

		if err := s.eraser.Erase(ctx, id, user.ID, adminID, note, now); err != nil {
			return nil, fmt.Errorf("failed to erase account: %w", err)
		}
		s.log.Info("account erased", zap.String("request_id", id))
	}

	sendBestEffort(ctx, s.templates, s.log, models.TemplateDeletionProcessed, dr.Email, map[string]string{
		"full_name": fullName,
	})
	s.audit.Record(ctx, adminID, models.AuditDeletionProcess, "deletion_request", id, map[string]any{
		"approved": true,
	})

	return s.deletionRepo.GetByID(ctx, id)
}
