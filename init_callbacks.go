// Package main — WebSocket Hub callback wire-up.
//
// Hub ws paketinde yaşar, DB ve iş kuralları service katmanında. Hub'ın
// service'leri import etmemesi için bağlantı burada, main'de kurulur.
// Callback'ler Hub.Run() goroutine'inden ayrı goroutine'de çalışır.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/services"
	"github.com/akinalp/sohbet/ws"
)

func registerHubCallbacks(
	hub *ws.Hub,
	presence services.PresenceService,
	relationships services.RelationshipService,
	convRepo repository.ConversationRepository,
	groupRepo repository.GroupRepository,
	logger *zap.Logger,
) {
	logger = logger.Named("presence")

	// ─── Presence ───

	hub.OnUserFirstConnect(func(userID string) {
		if err := presence.SetOnline(context.Background(), userID); err != nil {
			logger.Warn("failed to set user online", zap.String("user_id", userID), zap.Error(err))
		}
	})

	hub.OnUserFullyDisconnected(func(userID string) {
		if err := presence.SetOffline(context.Background(), userID); err != nil {
			logger.Warn("failed to set user offline", zap.String("user_id", userID), zap.Error(err))
		}
	})

	// ─── Typing ───
	hub.SetTypingRouter(typingRouter(relationships, convRepo, groupRepo))
}

// typingRouter, typing event'inin alıcılarını seçer.
//
// DM: gönderen konuşmanın tarafı olmalı ve çift arasında engel olmamalı.
// Grup: gönderen üye olmalı; diğer tüm üyelere gider.
func typingRouter(
	relationships services.RelationshipService,
	convRepo repository.ConversationRepository,
	groupRepo repository.GroupRepository,
) ws.TypingRouter {
	return func(ctx context.Context, userID string, data ws.TypingData) []string {
		switch {
		case data.ConversationID != "":
			conv, err := convRepo.GetByID(ctx, data.ConversationID)
			if err != nil || !conv.HasParticipant(userID) {
				return nil
			}
			other := conv.Other(userID)
			ok, err := relationships.CanInteract(ctx, userID, other)
			if err != nil || !ok {
				return nil
			}
			return []string{other}

		case data.GroupID != "":
			group, err := groupRepo.GetByID(ctx, data.GroupID)
			if err != nil || !group.HasMember(userID) {
				return nil
			}
			recipients := make([]string, 0, len(group.Members))
			for _, id := range group.MemberIDs() {
				if id != userID {
					recipients = append(recipients, id)
				}
			}
			return recipients
		}
		return nil
	}
}
