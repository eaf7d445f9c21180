package repository

import (
	"context"

	"github.com/akinalp/circle/models"
)

// TemplateRepository stores email templates. Keys are fixed by migrations;
// there is no create or delete.
type TemplateRepository interface {
	List(ctx context.Context) ([]models.EmailTemplate, error)
	GetByKey(ctx context.Context, key string) (*models.EmailTemplate, error)
	Update(ctx context.Context, key, subject, body, updatedBy string) error
}
