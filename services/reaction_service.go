package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

// ReactionService, mesaj emoji tepkileri. Aynı (mesaj, kullanıcı, emoji)
// ikinci kez eklenemez. Her değişiklikte mesajın güncel tepki listesi
// tüm katılımcılara gider.
type ReactionService interface {
	Add(ctx context.Context, userID string, req *models.AddReactionRequest) (*models.Reaction, error)
	Remove(ctx context.Context, userID, reactionID string) error
	ListByMessage(ctx context.Context, userID, messageID string) ([]models.Reaction, error)
}

type reactionService struct {
	reactionRepo repository.ReactionRepository
	messageRepo  repository.MessageRepository
	hub          ws.EventPublisher
	participants participants
}

func NewReactionService(
	reactionRepo repository.ReactionRepository,
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	groupRepo repository.GroupRepository,
	hub ws.EventPublisher,
) ReactionService {
	return &reactionService{
		reactionRepo: reactionRepo,
		messageRepo:  messageRepo,
		hub:          hub,
		participants: participants{convRepo: convRepo, groupRepo: groupRepo},
	}
}

func (s *reactionService) Add(ctx context.Context, userID string, req *models.AddReactionRequest) (*models.Reaction, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	msg, err := s.messageRepo.GetByID(ctx, req.MessageID)
	if err != nil {
		return nil, err
	}
	ids, err := s.participants.require(ctx, msg, userID)
	if err != nil {
		return nil, err
	}

	reaction := &models.Reaction{
		ID:        uuid.NewString(),
		MessageID: msg.ID,
		UserID:    userID,
		Emoji:     req.Emoji,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reactionRepo.Create(ctx, reaction); err != nil {
		return nil, err
	}

	created, err := s.reactionRepo.GetByID(ctx, reaction.ID)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, msg.ID, ids)
	return created, nil
}

func (s *reactionService) Remove(ctx context.Context, userID, reactionID string) error {
	reaction, err := s.reactionRepo.GetByID(ctx, reactionID)
	if err != nil {
		return err
	}
	if reaction.UserID != userID {
		return fmt.Errorf("%w: you can only remove your own reactions", pkg.ErrForbidden)
	}

	msg, err := s.messageRepo.GetByID(ctx, reaction.MessageID)
	if err != nil {
		return err
	}
	ids, err := s.participants.of(ctx, msg)
	if err != nil {
		return err
	}

	if err := s.reactionRepo.Delete(ctx, reaction.ID); err != nil {
		return err
	}

	s.broadcast(ctx, msg.ID, ids)
	return nil
}

func (s *reactionService) ListByMessage(ctx context.Context, userID, messageID string) ([]models.Reaction, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participants.require(ctx, msg, userID); err != nil {
		return nil, err
	}
	return s.reactionRepo.ListByMessage(ctx, msg.ID)
}

// broadcast, mesajın güncel tepkilerini yollar. Okuma hatası bildirimi atlatır.
func (s *reactionService) broadcast(ctx context.Context, messageID string, userIDs []string) {
	reactions, err := s.reactionRepo.ListByMessage(ctx, messageID)
	if err != nil {
		return
	}
	s.hub.BroadcastToUsers(userIDs, ws.Event{
		Op:   ws.OpReactionUpdate,
		Data: models.ReactionEvent{MessageID: messageID, Reactions: reactions},
	})
}
