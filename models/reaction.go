package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Reaction, bir kullanıcının bir mesaja verdiği tek emoji.
// UNIQUE(message_id, user_id, emoji): aynı üçlü ikinci kez eklenemez.
type Reaction struct {
	ID        string       `json:"id"`
	MessageID string       `json:"message_id"`
	UserID    string       `json:"user_id"`
	Emoji     string       `json:"emoji"`
	CreatedAt time.Time    `json:"created_at"`
	User      *UserSummary `json:"user,omitempty"`
}

type AddReactionRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

func (r *AddReactionRequest) Validate() error {
	r.MessageID = strings.TrimSpace(r.MessageID)
	r.Emoji = strings.TrimSpace(r.Emoji)
	if r.MessageID == "" || r.Emoji == "" {
		return fmt.Errorf("message_id and emoji are required")
	}
	if utf8.RuneCountInString(r.Emoji) > 16 {
		return fmt.Errorf("emoji is too long")
	}
	return nil
}

// ReactionEvent, reactionUpdate event payload'ı.
type ReactionEvent struct {
	MessageID string     `json:"message_id"`
	Reactions []Reaction `json:"reactions"`
}
