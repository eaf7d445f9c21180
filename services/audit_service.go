package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/repository"
)

// AuditService records administrative actions. Recording is best effort:
// the admin action already succeeded, so a failed insert is logged and
// swallowed.
type AuditService interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, details map[string]any)
	List(ctx context.Context, filter models.AuditFilter) (*AuditPage, error)
}

// AuditPage is one page of the audit log.
type AuditPage struct {
	Entries []models.AuditEntry `json:"entries"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       *zap.Logger
}

// NewAuditService is the constructor.
func NewAuditService(auditRepo repository.AuditRepository, log *zap.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log.Named("audit"),
	}
}

func (s *auditService) Record(ctx context.Context, actorID, action, entityType, entityID string, details map[string]any) {
	entry := &models.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.log.Error("failed to record audit entry",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s *auditService) List(ctx context.Context, filter models.AuditFilter) (*AuditPage, error) {
	filter.Normalize()

	entries, total, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	return &AuditPage{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
