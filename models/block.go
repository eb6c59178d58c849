package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Block, tek yönlü engel kaydı (blocker → blocked).
// Var olduğu sürece iki yönde de mesaj, arama ve arkadaşlık isteği kapalıdır.
type Block struct {
	ID        string    `json:"id"`
	BlockerID string    `json:"blocker_id"`
	BlockedID string    `json:"blocked_id"`
	Reason    *string   `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockWithUser, "engellediklerim" listesi için.
type BlockWithUser struct {
	Block
	User UserSummary `json:"user"`
}

type BlockRequest struct {
	UserID string  `json:"user_id"`
	Reason *string `json:"reason"`
}

func (r *BlockRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if r.Reason != nil {
		v := strings.TrimSpace(*r.Reason)
		if utf8.RuneCountInString(v) > 255 {
			return fmt.Errorf("reason must be at most 255 characters")
		}
		if v == "" {
			r.Reason = nil
		} else {
			r.Reason = &v
		}
	}
	return nil
}

type UnblockRequest struct {
	UserID string `json:"user_id"`
}

func (r *UnblockRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}
