package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

// FriendshipService, arkadaşlık istekleri ve arkadaş listesi.
//
// Her kullanıcı çifti için tek bir friend_requests satırı vardır. Kabul
// edilen istek iki taraf arasındaki DM konuşmasını da açar.
type FriendshipService interface {
	SendRequest(ctx context.Context, senderID string, req *models.SendFriendRequestRequest) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, userID string, req *models.RespondFriendRequestRequest) (*models.FriendRequestAcceptedEvent, error)
	RejectRequest(ctx context.Context, userID string, req *models.RespondFriendRequestRequest) error
	RemoveFriend(ctx context.Context, userID, friendID string) error

	ListFriends(ctx context.Context, userID string) ([]models.UserSummary, error)
	ListIncoming(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
}

type friendshipService struct {
	friendRepo    repository.FriendshipRepository
	userRepo      repository.UserRepository
	relationships RelationshipService
	conversations ConversationService
	hub           ws.EventPublisher
}

func NewFriendshipService(
	friendRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	relationships RelationshipService,
	conversations ConversationService,
	hub ws.EventPublisher,
) FriendshipService {
	return &friendshipService{
		friendRepo:    friendRepo,
		userRepo:      userRepo,
		relationships: relationships,
		conversations: conversations,
		hub:           hub,
	}
}

func (s *friendshipService) SendRequest(ctx context.Context, senderID string, req *models.SendFriendRequestRequest) (*models.FriendRequest, error) {
	// 1. Validasyon
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if req.ReceiverID == senderID {
		return nil, fmt.Errorf("%w: cannot send friend request to yourself", pkg.ErrBadRequest)
	}

	// 2. Alıcı var mı, engel var mı
	if _, err := s.userRepo.GetByID(ctx, req.ReceiverID); err != nil {
		return nil, err
	}
	if err := s.relationships.EnsureCanInteract(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}

	// 3. Çiftin mevcut satırı
	now := time.Now().UTC()
	existing, err := s.friendRepo.GetByPair(ctx, senderID, req.ReceiverID)
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		existing = &models.FriendRequest{
			ID:         uuid.NewString(),
			SenderID:   senderID,
			ReceiverID: req.ReceiverID,
			Status:     models.FriendRequestPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.friendRepo.Create(ctx, existing); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		switch existing.Status {
		case models.FriendRequestPending:
			return nil, fmt.Errorf("%w: a friend request is already pending", pkg.ErrAlreadyExists)
		case models.FriendRequestAccepted:
			return nil, fmt.Errorf("%w: you are already friends", pkg.ErrAlreadyExists)
		case models.FriendRequestBlocked:
			return nil, fmt.Errorf("%w: you cannot interact with this user", pkg.ErrForbidden)
		}
		// rejected: aynı satır yeni yönle tekrar açılır
		if err := s.friendRepo.Reopen(ctx, existing.ID, senderID, req.ReceiverID, now); err != nil {
			return nil, err
		}
		existing.SenderID = senderID
		existing.ReceiverID = req.ReceiverID
		existing.Status = models.FriendRequestPending
		existing.UpdatedAt = now
	}

	// 4. Alıcıya bildir
	if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
		s.hub.BroadcastToUser(req.ReceiverID, ws.Event{
			Op:   ws.OpNewFriendRequest,
			Data: models.FriendRequestWithUser{FriendRequest: *existing, User: sender.Summary()},
		})
	}

	return existing, nil
}

// pendingFor, isteği bulur ve userID'nin alıcı olduğu bekleyen bir istek olduğunu doğrular.
func (s *friendshipService) pendingFor(ctx context.Context, userID, requestID string) (*models.FriendRequest, error) {
	fr, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if fr.ReceiverID != userID {
		return nil, fmt.Errorf("%w: only the receiver can respond to this request", pkg.ErrForbidden)
	}
	if fr.Status != models.FriendRequestPending {
		return nil, fmt.Errorf("%w: friend request is not pending", pkg.ErrBadRequest)
	}
	return fr, nil
}

func (s *friendshipService) AcceptRequest(ctx context.Context, userID string, req *models.RespondFriendRequestRequest) (*models.FriendRequestAcceptedEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	fr, err := s.pendingFor(ctx, userID, req.RequestID)
	if err != nil {
		return nil, err
	}
	if err := s.relationships.EnsureCanInteract(ctx, fr.SenderID, fr.ReceiverID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.friendRepo.UpdateStatus(ctx, fr.ID, models.FriendRequestAccepted, now); err != nil {
		return nil, err
	}
	fr.Status = models.FriendRequestAccepted
	fr.UpdatedAt = now

	conv, err := s.conversations.GetOrCreateDirect(ctx, fr.SenderID, fr.ReceiverID)
	if err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, fr.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.userRepo.GetByID(ctx, fr.ReceiverID)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(fr.SenderID, ws.Event{
		Op:   ws.OpFriendRequestAccepted,
		Data: models.FriendRequestAcceptedEvent{Request: *fr, User: receiver.Summary(), ConversationID: conv.ID},
	})

	return &models.FriendRequestAcceptedEvent{Request: *fr, User: sender.Summary(), ConversationID: conv.ID}, nil
}

func (s *friendshipService) RejectRequest(ctx context.Context, userID string, req *models.RespondFriendRequestRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	fr, err := s.pendingFor(ctx, userID, req.RequestID)
	if err != nil {
		return err
	}
	return s.friendRepo.UpdateStatus(ctx, fr.ID, models.FriendRequestRejected, time.Now().UTC())
}

// RemoveFriend, kabul edilmiş satırı siler. DM konuşması ve mesajlar kalır.
func (s *friendshipService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	fr, err := s.friendRepo.GetByPair(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if fr.Status != models.FriendRequestAccepted {
		return fmt.Errorf("%w: friendship not found", pkg.ErrNotFound)
	}
	return s.friendRepo.Delete(ctx, fr.ID)
}

func (s *friendshipService) ListFriends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	return s.friendRepo.ListFriends(ctx, userID)
}

func (s *friendshipService) ListIncoming(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return s.friendRepo.ListIncoming(ctx, userID)
}

func (s *friendshipService) ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return s.friendRepo.ListOutgoing(ctx, userID)
}
