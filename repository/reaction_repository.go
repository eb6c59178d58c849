package repository

import (
	"context"

	"github.com/akinalp/sohbet/models"
)

// ReactionRepository, mesaj reaction'ları.
//
// UNIQUE(message_id, user_id, emoji): aynı üçlü ikinci kez eklenirse
// Create ErrAlreadyExists döner.
//
// ListByMessageIDs, birden fazla mesajın reaction'larını tek sorguda yükler
// (N+1 önleme). Dönüş: map[messageID] → []Reaction
type ReactionRepository interface {
	Create(ctx context.Context, reaction *models.Reaction) error
	GetByID(ctx context.Context, id string) (*models.Reaction, error)
	Delete(ctx context.Context, id string) error
	ListByMessage(ctx context.Context, messageID string) ([]models.Reaction, error)
	ListByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]models.Reaction, error)
}
