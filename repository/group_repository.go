package repository

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
)

// GroupRepository, group_conversations ve group_members tabloları.
type GroupRepository interface {
	// Create, grubu ve üyelerini aynı anda yazar. memberIDs admin'i içermelidir.
	Create(ctx context.Context, group *models.GroupConversation, memberIDs []string) error
	GetByID(ctx context.Context, id string) (*models.GroupConversation, error)
	Update(ctx context.Context, id, name, adminID string, at time.Time) error
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, groupID, userID string, at time.Time) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	// OldestMember, katılma sırasına göre ilk üye; grup boşsa ErrNotFound.
	OldestMember(ctx context.Context, groupID string) (string, error)

	// ListForUser, üyesi olunan gruplar (updated_at DESC), üyeler ve okunmamış sayısıyla.
	ListForUser(ctx context.Context, userID string, page models.PageRequest) ([]models.GroupPreview, int, error)
}
