package repository

import (
	"context"

	"github.com/akinalp/sohbet/models"
)

// BlockRepository, blocks tablosu. Engel tek yönlü kaydedilir ama
// ExistsBetween iki yönü de kontrol eder.
type BlockRepository interface {
	Create(ctx context.Context, block *models.Block) error
	Delete(ctx context.Context, blockerID, blockedID string) error
	ExistsBetween(ctx context.Context, userA, userB string) (bool, error)
	IsBlockedBy(ctx context.Context, blockerID, blockedID string) (bool, error)
	ListByBlocker(ctx context.Context, blockerID string) ([]models.BlockWithUser, error)
}
