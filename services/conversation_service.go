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
)

// ConversationService, iki kişilik DM konuşmaları.
type ConversationService interface {
	// GetOrCreateDirect, idempotent: aynı çift için her zaman aynı konuşma döner.
	GetOrCreateDirect(ctx context.Context, userA, userB string) (*models.Conversation, error)
	Inbox(ctx context.Context, userID string, page models.PageRequest) (*models.ConversationPage, error)
}

type conversationService struct {
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
) ConversationService {
	return &conversationService{convRepo: convRepo, messageRepo: messageRepo}
}

func (s *conversationService) GetOrCreateDirect(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	if userA == userB {
		return nil, fmt.Errorf("%w: a conversation needs two different users", pkg.ErrBadRequest)
	}

	conv, err := s.convRepo.GetByPair(ctx, userA, userB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	conv = &models.Conversation{
		ID:        uuid.NewString(),
		User1ID:   userA,
		User2ID:   userB,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		// Eşzamanlı istek aynı çifti önce yazdıysa onu kullan.
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return s.convRepo.GetByPair(ctx, userA, userB)
		}
		return nil, err
	}
	return conv, nil
}

func (s *conversationService) Inbox(ctx context.Context, userID string, page models.PageRequest) (*models.ConversationPage, error) {
	convs, total, err := s.convRepo.ListForUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	for i := range convs {
		last, err := s.messageRepo.LastInConversation(ctx, convs[i].ID, userID)
		if err != nil {
			return nil, err
		}
		convs[i].LastMessage = last
	}

	return &models.ConversationPage{
		Conversations: convs,
		Pagination:    models.NewPagination(page, total),
	}, nil
}
