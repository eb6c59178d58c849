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

// GroupService, grup konuşmaları.
//
// Her grubun tam olarak bir admin'i vardır ve admin her zaman üyedir.
// Admin ayrılırsa en eski üye admin olur; son üye ayrılınca grup mesajlarıyla
// birlikte silinir.
type GroupService interface {
	Create(ctx context.Context, creatorID string, req *models.CreateGroupRequest) (*models.GroupConversation, error)
	AddMember(ctx context.Context, userID, groupID string, req *models.MemberRequest) (*models.GroupConversation, error)
	RemoveMember(ctx context.Context, userID, groupID string, req *models.MemberRequest) (*models.GroupConversation, error)
	Leave(ctx context.Context, userID, groupID string) error
	Update(ctx context.Context, userID, groupID string, req *models.UpdateGroupRequest) (*models.GroupConversation, error)
	Delete(ctx context.Context, userID, groupID string) error
	List(ctx context.Context, userID string, page models.PageRequest) (*models.GroupPage, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

type groupService struct {
	db            *sql.DB
	groupRepo     repository.GroupRepository
	messageRepo   repository.MessageRepository
	friendRepo    repository.FriendshipRepository
	userRepo      repository.UserRepository
	relationships RelationshipService
	uploads       UploadService
	hub           ws.EventPublisher
}

func NewGroupService(
	db *sql.DB,
	groupRepo repository.GroupRepository,
	messageRepo repository.MessageRepository,
	friendRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	relationships RelationshipService,
	uploads UploadService,
	hub ws.EventPublisher,
) GroupService {
	return &groupService{
		db:            db,
		groupRepo:     groupRepo,
		messageRepo:   messageRepo,
		friendRepo:    friendRepo,
		userRepo:      userRepo,
		relationships: relationships,
		uploads:       uploads,
		hub:           hub,
	}
}

// Create, admin (oluşturan) listeye otomatik eklenir. Admin dışındaki her üye
// oluşturanın kabul edilmiş arkadaşı olmalıdır; olmayanlar hata detayında
// "invalid_members" olarak döner.
func (s *groupService) Create(ctx context.Context, creatorID string, req *models.CreateGroupRequest) (*models.GroupConversation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	others := without(req.Members, creatorID)
	if len(others) == 0 {
		return nil, fmt.Errorf("%w: a group needs at least one member besides you", pkg.ErrBadRequest)
	}

	friends, err := s.friendRepo.FilterFriends(ctx, creatorID, others)
	if err != nil {
		return nil, err
	}
	invalid := []string{}
	for _, id := range others {
		if !friends[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return nil, pkg.NewDetailedError(pkg.ErrBadRequest,
			"all members must be your friends",
			map[string]any{"invalid_members": invalid})
	}

	now := time.Now().UTC()
	group := &models.GroupConversation{
		ID:        uuid.NewString(),
		Name:      req.Name,
		AdminID:   creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return repository.NewSQLiteGroupRepo(tx).Create(ctx, group, append([]string{creatorID}, others...))
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndNotify(ctx, group.ID)
}

// reloadAndNotify, grubu üyeleriyle tekrar okur ve tüm üyelere groupUpdated yollar.
func (s *groupService) reloadAndNotify(ctx context.Context, groupID string) (*models.GroupConversation, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToUsers(group.MemberIDs(), ws.Event{Op: ws.OpGroupUpdated, Data: group})
	return group, nil
}

func (s *groupService) requireAdmin(ctx context.Context, groupID, userID string) (*models.GroupConversation, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != userID {
		return nil, fmt.Errorf("%w: only the group admin can do this", pkg.ErrForbidden)
	}
	return group, nil
}

func (s *groupService) AddMember(ctx context.Context, userID, groupID string, req *models.MemberRequest) (*models.GroupConversation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	group, err := s.requireAdmin(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}
	if group.HasMember(req.UserID) {
		return nil, fmt.Errorf("%w: user is already a member", pkg.ErrAlreadyExists)
	}
	if err := s.relationships.EnsureCanInteract(ctx, userID, req.UserID); err != nil {
		return nil, err
	}

	friends, err := s.friendRepo.AreFriends(ctx, userID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, fmt.Errorf("%w: you can only add your friends", pkg.ErrBadRequest)
	}

	now := time.Now().UTC()
	if err := s.groupRepo.AddMember(ctx, group.ID, req.UserID, now); err != nil {
		return nil, err
	}
	if err := s.groupRepo.Touch(ctx, group.ID, now); err != nil {
		return nil, err
	}

	return s.reloadAndNotify(ctx, group.ID)
}

func (s *groupService) RemoveMember(ctx context.Context, userID, groupID string, req *models.MemberRequest) (*models.GroupConversation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	group, err := s.requireAdmin(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if req.UserID == userID {
		return nil, fmt.Errorf("%w: admin cannot remove themselves, leave the group instead", pkg.ErrBadRequest)
	}
	if !group.HasMember(req.UserID) {
		return nil, fmt.Errorf("%w: user is not a member of this group", pkg.ErrNotFound)
	}

	now := time.Now().UTC()
	if err := s.groupRepo.RemoveMember(ctx, group.ID, req.UserID); err != nil {
		return nil, err
	}
	if err := s.groupRepo.Touch(ctx, group.ID, now); err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(req.UserID, ws.Event{
		Op:   ws.OpGroupDeleted,
		Data: models.GroupDeletedEvent{GroupID: group.ID},
	})
	return s.reloadAndNotify(ctx, group.ID)
}

// Leave, tek transaction'da: üyelik silinir, ayrılan admin ise yetki en eski
// üyeye geçer, kimse kalmadıysa grup ve mesajları silinir.
func (s *groupService) Leave(ctx context.Context, userID, groupID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return fmt.Errorf("%w: you are not a member of this group", pkg.ErrNotFound)
	}

	deleted := false
	var attachments []string
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		groups := repository.NewSQLiteGroupRepo(tx)
		now := time.Now().UTC()

		if err := groups.RemoveMember(ctx, group.ID, userID); err != nil {
			return err
		}

		next, err := groups.OldestMember(ctx, group.ID)
		if errors.Is(err, pkg.ErrNotFound) {
			deleted = true
			attachments, err = s.purgeMessages(ctx, tx, group.ID)
			if err != nil {
				return err
			}
			return groups.Delete(ctx, group.ID)
		}
		if err != nil {
			return err
		}

		adminID := group.AdminID
		if adminID == userID {
			adminID = next
		}
		return groups.Update(ctx, group.ID, group.Name, adminID, now)
	})
	if err != nil {
		return err
	}
	s.removeFiles(attachments)

	s.hub.BroadcastToUser(userID, ws.Event{
		Op:   ws.OpGroupDeleted,
		Data: models.GroupDeletedEvent{GroupID: group.ID},
	})
	if !deleted {
		if _, err := s.reloadAndNotify(ctx, group.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *groupService) Update(ctx context.Context, userID, groupID string, req *models.UpdateGroupRequest) (*models.GroupConversation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	group, err := s.requireAdmin(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	name, adminID := group.Name, group.AdminID
	if req.Name != nil {
		name = *req.Name
	}
	if req.NewAdminID != nil {
		if !group.HasMember(*req.NewAdminID) {
			return nil, fmt.Errorf("%w: new admin must be a member of the group", pkg.ErrBadRequest)
		}
		adminID = *req.NewAdminID
	}

	if err := s.groupRepo.Update(ctx, group.ID, name, adminID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.reloadAndNotify(ctx, group.ID)
}

// Delete, önce mesajlar sonra grup; tek transaction.
func (s *groupService) Delete(ctx context.Context, userID, groupID string) error {
	group, err := s.requireAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}

	var attachments []string
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		attachments, err = s.purgeMessages(ctx, tx, group.ID)
		if err != nil {
			return err
		}
		return repository.NewSQLiteGroupRepo(tx).Delete(ctx, group.ID)
	})
	if err != nil {
		return err
	}
	s.removeFiles(attachments)

	s.hub.BroadcastToUsers(group.MemberIDs(), ws.Event{
		Op:   ws.OpGroupDeleted,
		Data: models.GroupDeletedEvent{GroupID: group.ID},
	})
	return nil
}

func (s *groupService) List(ctx context.Context, userID string, page models.PageRequest) (*models.GroupPage, error) {
	groups, total, err := s.groupRepo.ListForUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	for i := range groups {
		last, err := s.messageRepo.LastInGroup(ctx, groups[i].ID, userID)
		if err != nil {
			return nil, err
		}
		groups[i].LastMessage = last
	}

	return &models.GroupPage{
		Groups:     groups,
		Pagination: models.NewPagination(page, total),
	}, nil
}

func (s *groupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return s.groupRepo.IsMember(ctx, groupID, userID)
}

// purgeMessages, grubun mesajlarını siler ve eklerinin URL'lerini döner.
// Dosyalar commit sonrası silinmelidir.
func (s *groupService) purgeMessages(ctx context.Context, tx *sql.Tx, groupID string) ([]string, error) {
	messages := repository.NewSQLiteMessageRepo(tx)
	urls, err := messages.AttachmentURLsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := messages.DeleteByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *groupService) removeFiles(urls []string) {
	for _, url := range urls {
		s.uploads.Remove(url)
	}
}
