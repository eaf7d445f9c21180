package repository

import (
	"context"
	"time"

	"github.com/akinalp/circle/models"
)

// SessionRepository stores refresh token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID revokes every session of a user.
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
