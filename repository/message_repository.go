package repository

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
)

// StatusChange, toplu status güncellemesinde ilerletilen tek mesaj.
type StatusChange struct {
	MessageID string
	SenderID  string
}

// MessageRepository, mesaj veritabanı işlemleri.
//
// Listeleme metotları viewerID alır: "benden sil" ile gizlenmiş mesajlar
// o kullanıcıya hiç dönmez.
//
// Status sadece ileri gider. Advance* metotları hedef durumdan geride olan
// satırları günceller, diğerlerine dokunmaz.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID, viewerID string) ([]models.Message, error)
	ListByGroup(ctx context.Context, groupID, viewerID string, page models.PageRequest) ([]models.Message, int, error)
	// LastInConversation / LastInGroup: mesaj yoksa nil, nil döner.
	LastInConversation(ctx context.Context, conversationID, viewerID string) (*models.Message, error)
	LastInGroup(ctx context.Context, groupID, viewerID string) (*models.Message, error)

	UpdateBody(ctx context.Context, id, body string, at time.Time) error
	AdvanceStatus(ctx context.Context, id string, status models.MessageStatus, at time.Time) (bool, error)
	AdvanceConversationStatus(ctx context.Context, conversationID, readerID string, status models.MessageStatus, at time.Time) ([]StatusChange, error)
	MarkGroupMessagesRead(ctx context.Context, groupID, readerID string, messageIDs []string, at time.Time) ([]StatusChange, error)

	Hide(ctx context.Context, messageID, userID string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByGroup(ctx context.Context, groupID string) error

	// Toplu silmelerden önce disk temizliği için.
	AttachmentURLsByPair(ctx context.Context, userA, userB string) ([]string, error)
	AttachmentURLsByGroup(ctx context.Context, groupID string) ([]string, error)
}
