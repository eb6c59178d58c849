package services

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

// PresenceService, çevrimiçi durumunu DB'ye yazar ve arkadaşlara duyurur.
// Hub callback'lerinden ve logout'tan çağrılır.
type PresenceService interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

type presenceService struct {
	userRepo   repository.UserRepository
	friendRepo repository.FriendshipRepository
	hub        ws.EventPublisher
}

func NewPresenceService(
	userRepo repository.UserRepository,
	friendRepo repository.FriendshipRepository,
	hub ws.EventPublisher,
) PresenceService {
	return &presenceService{userRepo: userRepo, friendRepo: friendRepo, hub: hub}
}

func (s *presenceService) SetOnline(ctx context.Context, userID string) error {
	if err := s.userRepo.SetOnline(ctx, userID, true, time.Now().UTC()); err != nil {
		return err
	}
	return s.announce(ctx, userID, ws.Event{
		Op:   ws.OpUserOnline,
		Data: ws.PresenceData{UserID: userID, IsOnline: true},
	})
}

func (s *presenceService) SetOffline(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	if err := s.userRepo.SetOnline(ctx, userID, false, now); err != nil {
		return err
	}
	return s.announce(ctx, userID, ws.Event{
		Op:   ws.OpUserOffline,
		Data: ws.PresenceData{UserID: userID, IsOnline: false, LastSeen: now.Format(time.RFC3339)},
	})
}

func (s *presenceService) announce(ctx context.Context, userID string, event ws.Event) error {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return err
	}
	s.hub.BroadcastToUsers(summaryIDs(friends), event)
	return nil
}

func summaryIDs(users []models.UserSummary) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
