package repository

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
)

// ConversationRepository, iki kişilik konuşmalar.
// Çift her zaman (küçük, büyük) sırasıyla saklanır; çağıran sıralamak zorunda değil.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	GetByPair(ctx context.Context, userA, userB string) (*models.Conversation, error)
	DeleteByPair(ctx context.Context, userA, userB string) error
	Touch(ctx context.Context, id string, at time.Time) error

	// ListForUser, son aktiviteye göre (updated_at DESC) sayfalı gelen kutusu.
	// LastMessage alanı doldurulmaz; UnreadCount doldurulur.
	ListForUser(ctx context.Context, userID string, page models.PageRequest) ([]models.ConversationPreview, int, error)
}
