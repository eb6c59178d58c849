package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// GroupConversation, N kişilik grup konuşması. Her an tam olarak bir admin vardır
// ve admin her zaman üyedir.
type GroupConversation struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	AdminID   string        `json:"admin_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Members   []UserSummary `json:"members,omitempty"`
}

// HasMember, kullanıcı Members listesinde mi?
func (g *GroupConversation) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// MemberIDs, üye ID listesi.
func (g *GroupConversation) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// GroupPreview, GET /api/groups satırı.
type GroupPreview struct {
	GroupConversation
	LastMessage *Message `json:"last_message"`
	UnreadCount int      `json:"unread_count"`
}

type GroupPage struct {
	Groups     []GroupPreview `json:"groups"`
	Pagination Pagination     `json:"pagination"`
}

const (
	minGroupMembers = 2
	maxGroupName    = 100
)

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Validate, adı kırpar ve üye listesini tekilleştirir.
func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("group name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxGroupName {
		return fmt.Errorf("group name must be at most %d characters", maxGroupName)
	}
	if len(r.Members) < minGroupMembers {
		return fmt.Errorf("a group needs at least %d members", minGroupMembers)
	}

	seen := make(map[string]bool, len(r.Members))
	unique := make([]string, 0, len(r.Members))
	for _, id := range r.Members {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) < minGroupMembers {
		return fmt.Errorf("a group needs at least %d members", minGroupMembers)
	}
	r.Members = unique
	return nil
}

// MemberRequest, add/remove member body'si.
type MemberRequest struct {
	UserID string `json:"user_id"`
}

func (r *MemberRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// UpdateGroupRequest, PUT /api/group/{groupId}. nil alan = değişmez.
// İsim boş bırakılamaz, admin hiçbir zaman temizlenemez.
type UpdateGroupRequest struct {
	Name       *string `json:"name"`
	NewAdminID *string `json:"new_admin_id"`
}

func (r *UpdateGroupRequest) Validate() error {
	if r.Name == nil && r.NewAdminID == nil {
		return fmt.Errorf("name or new_admin_id is required")
	}
	if r.Name != nil {
		v := strings.TrimSpace(*r.Name)
		if v == "" || utf8.RuneCountInString(v) > maxGroupName {
			return fmt.Errorf("group name must be between 1 and %d characters", maxGroupName)
		}
		r.Name = &v
	}
	if r.NewAdminID != nil {
		v := strings.TrimSpace(*r.NewAdminID)
		if v == "" {
			return fmt.Errorf("new_admin_id cannot be empty")
		}
		r.NewAdminID = &v
	}
	return nil
}

// GroupDeletedEvent, groupDeleted event payload'ı.
type GroupDeletedEvent struct {
	GroupID string `json:"group_id"`
}
