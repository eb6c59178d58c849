package repository

import (
	"context"

	"github.com/akinalp/sohbet/models"
)

// CallLogRepository, append-only arama geçmişi. Update/Delete yoktur.
type CallLogRepository interface {
	Create(ctx context.Context, log *models.CallLog) error
	GetByID(ctx context.Context, id string) (*models.CallLog, error)
	// ListForUser, kullanıcının arayan ya da aranan olduğu kayıtlar (yeniden eskiye).
	ListForUser(ctx context.Context, userID string) ([]models.CallLog, error)
	// ListBetween, iki kullanıcı arasındaki kayıtlar (iki yön, yeniden eskiye).
	ListBetween(ctx context.Context, userA, userB string) ([]models.CallLog, error)
}
