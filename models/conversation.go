package models

import "time"

// Conversation, iki kişilik DM konuşması.
// User1ID < User2ID sırası korunur; UNIQUE(user1_id, user2_id) aynı çift için
// ikinci konuşmanın oluşmasını engeller.
type Conversation struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasParticipant, kullanıcı bu konuşmanın tarafı mı?
func (c *Conversation) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other, verilen katılımcının karşısındaki kullanıcı.
func (c *Conversation) Other(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ConversationPreview, gelen kutusu satırı.
type ConversationPreview struct {
	Conversation
	Participant UserSummary `json:"participant"`
	LastMessage *Message    `json:"last_message"`
	UnreadCount int         `json:"unread_count"`
}

// ConversationPage, GET /api/conversations yanıtı.
type ConversationPage struct {
	Conversations []ConversationPreview `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}
