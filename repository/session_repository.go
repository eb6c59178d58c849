package repository

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
)

// SessionRepository, giriş oturumları. Access token'ın jti'si = session ID.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
