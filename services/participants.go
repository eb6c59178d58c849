package services

import (
	"context"
	"fmt"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
)

// participants, bir mesajın kimlere ait olduğunu çözer: DM ise iki taraf,
// grup ise tüm üyeler. Mesaj ve reaction servisleri ortak kullanır.
type participants struct {
	convRepo  repository.ConversationRepository
	groupRepo repository.GroupRepository
}

func (p participants) of(ctx context.Context, msg *models.Message) ([]string, error) {
	switch {
	case msg.ConversationID != nil:
		conv, err := p.convRepo.GetByID(ctx, *msg.ConversationID)
		if err != nil {
			return nil, err
		}
		return []string{conv.User1ID, conv.User2ID}, nil
	case msg.GroupID != nil:
		group, err := p.groupRepo.GetByID(ctx, *msg.GroupID)
		if err != nil {
			return nil, err
		}
		return group.MemberIDs(), nil
	default:
		return nil, fmt.Errorf("message %s has no conversation", msg.ID)
	}
}

// require, userID katılımcı değilse ErrForbidden döner.
func (p participants) require(ctx context.Context, msg *models.Message, userID string) ([]string, error) {
	ids, err := p.of(ctx, msg)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == userID {
			return ids, nil
		}
	}
	return nil, fmt.Errorf("%w: you are not a participant of this conversation", pkg.ErrForbidden)
}

func without(ids []string, exclude string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
