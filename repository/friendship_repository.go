package repository

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
)

// FriendshipRepository, friend_requests tablosu.
//
// Sırasız her çift için tek satır tutulur (UNIQUE(user_low, user_high)).
// İkinci bir Create, ErrAlreadyExists ile reddedilir; reddedilmiş bir istek
// Reopen ile tekrar pending yapılır.
type FriendshipRepository interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)
	GetByPair(ctx context.Context, userA, userB string) (*models.FriendRequest, error)
	Reopen(ctx context.Context, id, senderID, receiverID string, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.FriendRequestStatus, at time.Time) error
	MarkPairBlocked(ctx context.Context, userA, userB string, at time.Time) error
	MarkPairUnblocked(ctx context.Context, userA, userB string, at time.Time) error
	Delete(ctx context.Context, id string) error

	ListFriends(ctx context.Context, userID string) ([]models.UserSummary, error)
	ListIncoming(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	FilterFriends(ctx context.Context, userID string, candidates []string) (map[string]bool, error)
}
