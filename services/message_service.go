package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

// MessageService, DM ve grup mesajları.
//
// Durum sadece ileri gider (sent → delivered → read) ve sadece alıcı
// tarafından ilerletilir. "all" silme satırı ve eki kaldırır, "me" silme
// mesajı sadece silen kullanıcı için gizler.
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID string, in *models.SendMessageInput) (*models.Message, error)
	History(ctx context.Context, userID, otherID string) ([]models.Message, error)
	Edit(ctx context.Context, userID, messageID string, req *models.EditMessageRequest) (*models.Message, error)
	Delete(ctx context.Context, userID, messageID string, req *models.DeleteMessageRequest) error

	UpdateStatus(ctx context.Context, userID, messageID string, req *models.UpdateStatusRequest) (*models.Message, error)
	// UpdateConversationStatus, karşı tarafın gerideki tüm mesajlarını ilerletir,
	// değişen mesaj sayısını döner.
	UpdateConversationStatus(ctx context.Context, userID, conversationID string, req *models.UpdateStatusRequest) (int, error)

	SendToGroup(ctx context.Context, senderID, groupID string, in *models.SendMessageInput) (*models.Message, error)
	// GroupMessages, sayfayı döner ve sayfadaki başkalarına ait mesajları read yapar.
	GroupMessages(ctx context.Context, userID, groupID string, page models.PageRequest) (*models.MessagePage, error)
}

type messageService struct {
	db            *sql.DB
	messageRepo   repository.MessageRepository
	reactionRepo  repository.ReactionRepository
	userRepo      repository.UserRepository
	convRepo      repository.ConversationRepository
	groupRepo     repository.GroupRepository
	relationships RelationshipService
	conversations ConversationService
	uploads       UploadService
	hub           ws.EventPublisher
	participants  participants
}

func NewMessageService(
	db *sql.DB,
	messageRepo repository.MessageRepository,
	reactionRepo repository.ReactionRepository,
	userRepo repository.UserRepository,
	convRepo repository.ConversationRepository,
	groupRepo repository.GroupRepository,
	relationships RelationshipService,
	conversations ConversationService,
	uploads UploadService,
	hub ws.EventPublisher,
) MessageService {
	return &messageService{
		db:            db,
		messageRepo:   messageRepo,
		reactionRepo:  reactionRepo,
		userRepo:      userRepo,
		convRepo:      convRepo,
		groupRepo:     groupRepo,
		relationships: relationships,
		conversations: conversations,
		uploads:       uploads,
		hub:           hub,
		participants:  participants{convRepo: convRepo, groupRepo: groupRepo},
	}
}

func newMessage(senderID string, in *models.SendMessageInput) *models.Message {
	now := time.Now().UTC()
	msg := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		Attachment: in.Attachment,
		Status:     models.MessageStatusSent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Body != "" {
		body := in.Body
		msg.Body = &body
	}
	return msg
}

func (s *messageService) Send(ctx context.Context, senderID, receiverID string, in *models.SendMessageInput) (*models.Message, error) {
	// 1. İçerik
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot send a message to yourself", pkg.ErrBadRequest)
	}

	// 2. Alıcı ve engel
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}
	if err := s.relationships.EnsureCanInteract(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	// 3. Konuşmayı bul ya da aç
	conv, err := s.conversations.GetOrCreateDirect(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	// 4. Yaz
	msg := newMessage(senderID, in)
	msg.ConversationID = &conv.ID
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewSQLiteMessageRepo(tx).Create(ctx, msg); err != nil {
			return err
		}
		return repository.NewSQLiteConversationRepo(tx).Touch(ctx, conv.ID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	// 5. Bildir
	s.hub.BroadcastToUser(receiverID, ws.Event{Op: ws.OpNewMessage, Data: created})

	return created, nil
}

// History, iki kullanıcı arasındaki mesajlar (eskiden yeniye).
// Konuşma henüz yoksa boş liste döner.
func (s *messageService) History(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	conv, err := s.convRepo.GetByPair(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return []models.Message{}, nil
		}
		return nil, err
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conv.ID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachReactions(ctx, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *messageService) attachReactions(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]string, len(messages))
	for i := range messages {
		ids[i] = messages[i].ID
	}

	byMessage, err := s.reactionRepo.ListByMessageIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range messages {
		messages[i].Reactions = byMessage[messages[i].ID]
	}
	return nil
}

func (s *messageService) Edit(ctx context.Context, userID, messageID string, req *models.EditMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, fmt.Errorf("%w: only the sender can edit this message", pkg.ErrForbidden)
	}

	ids, err := s.participants.of(ctx, msg)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.UpdateBody(ctx, messageID, req.Message, time.Now().UTC()); err != nil {
		return nil, err
	}

	updated, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUsers(without(ids, userID), ws.Event{Op: ws.OpMessageUpdated, Data: updated})
	return updated, nil
}

func (s *messageService) Delete(ctx context.Context, userID, messageID string, req *models.DeleteMessageRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	ids, err := s.participants.require(ctx, msg, userID)
	if err != nil {
		return err
	}

	event := ws.Event{
		Op: ws.OpMessageDeleted,
		Data: models.MessageDeletedEvent{
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			GroupID:        msg.GroupID,
			Scope:          req.DeleteFor,
		},
	}

	if req.DeleteFor == models.DeleteForMe {
		if err := s.messageRepo.Hide(ctx, msg.ID, userID, time.Now().UTC()); err != nil {
			return err
		}
		s.hub.BroadcastToUser(userID, event)
		return nil
	}

	if msg.SenderID != userID {
		return fmt.Errorf("%w: only the sender can delete this message for everyone", pkg.ErrForbidden)
	}
	if err := s.messageRepo.Delete(ctx, msg.ID); err != nil {
		return err
	}
	if msg.Attachment != nil {
		s.uploads.Remove(msg.Attachment.URL)
	}

	s.hub.BroadcastToUsers(ids, event)
	return nil
}

func (s *messageService) UpdateStatus(ctx context.Context, userID, messageID string, req *models.UpdateStatusRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participants.require(ctx, msg, userID); err != nil {
		return nil, err
	}
	if msg.SenderID == userID {
		return nil, fmt.Errorf("%w: the sender cannot update the status of their own message", pkg.ErrForbidden)
	}

	switch {
	case req.Status.Rank() < msg.Status.Rank():
		return nil, fmt.Errorf("%w: message status cannot go back from %s to %s", pkg.ErrBadRequest, msg.Status, req.Status)
	case req.Status == msg.Status:
		return msg, nil
	}

	changed, err := s.messageRepo.AdvanceStatus(ctx, msg.ID, req.Status, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	updated, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if changed {
		s.hub.BroadcastToUser(msg.SenderID, ws.Event{
			Op: ws.OpMessageStatusUpdate,
			Data: models.MessageStatusEvent{
				MessageID:      updated.ID,
				ConversationID: updated.ConversationID,
				GroupID:        updated.GroupID,
				Status:         updated.Status,
				UpdatedBy:      userID,
			},
		})
	}
	return updated, nil
}

func (s *messageService) UpdateConversationStatus(ctx context.Context, userID, conversationID string, req *models.UpdateStatusRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conv.HasParticipant(userID) {
		return 0, fmt.Errorf("%w: you are not a participant of this conversation", pkg.ErrForbidden)
	}

	var changes []repository.StatusChange
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		changes, err = repository.NewSQLiteMessageRepo(tx).
			AdvanceConversationStatus(ctx, conv.ID, userID, req.Status, time.Now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}

	s.notifyStatusChanges(changes, &conv.ID, nil, req.Status, userID)
	return len(changes), nil
}

// notifyStatusChanges, her değişen mesajın göndericisine ayrı bir event yollar.
func (s *messageService) notifyStatusChanges(changes []repository.StatusChange, convID, groupID *string, status models.MessageStatus, by string) {
	for _, c := range changes {
		s.hub.BroadcastToUser(c.SenderID, ws.Event{
			Op: ws.OpMessageStatusUpdate,
			Data: models.MessageStatusEvent{
				MessageID:      c.MessageID,
				ConversationID: convID,
				GroupID:        groupID,
				Status:         status,
				UpdatedBy:      by,
			},
		})
	}
}

func (s *messageService) requireMember(ctx context.Context, groupID, userID string) (*models.GroupConversation, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("%w: you are not a member of this group", pkg.ErrForbidden)
	}
	return group, nil
}

func (s *messageService) SendToGroup(ctx context.Context, senderID, groupID string, in *models.SendMessageInput) (*models.Message, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	group, err := s.requireMember(ctx, groupID, senderID)
	if err != nil {
		return nil, err
	}

	msg := newMessage(senderID, in)
	msg.GroupID = &group.ID
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewSQLiteMessageRepo(tx).Create(ctx, msg); err != nil {
			return err
		}
		return repository.NewSQLiteGroupRepo(tx).Touch(ctx, group.ID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUsers(without(group.MemberIDs(), senderID), ws.Event{Op: ws.OpNewMessage, Data: created})
	return created, nil
}

func (s *messageService) GroupMessages(ctx context.Context, userID, groupID string, page models.PageRequest) (*models.MessagePage, error) {
	group, err := s.requireMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	messages, total, err := s.messageRepo.ListByGroup(ctx, group.ID, userID, page)
	if err != nil {
		return nil, err
	}

	var unread []string
	for _, m := range messages {
		if m.SenderID != userID && m.Status != models.MessageStatusRead {
			unread = append(unread, m.ID)
		}
	}

	if len(unread) > 0 {
		changes, err := s.messageRepo.MarkGroupMessagesRead(ctx, group.ID, userID, unread, time.Now().UTC())
		if err != nil {
			return nil, err
		}

		read := make(map[string]bool, len(changes))
		for _, c := range changes {
			read[c.MessageID] = true
		}
		for i := range messages {
			if read[messages[i].ID] {
				messages[i].Status = models.MessageStatusRead
			}
		}

		s.notifyStatusChanges(changes, nil, &group.ID, models.MessageStatusRead, userID)
	}

	if err := s.attachReactions(ctx, messages); err != nil {
		return nil, err
	}

	return &models.MessagePage{
		Messages:   messages,
		Pagination: models.NewPagination(page, total),
	}, nil
}
