package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MessageStatus, teslim durumu. Sadece ileri gider: sent → delivered → read.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// Rank, durumların sıralaması; geçersiz değer için 0.
func (s MessageStatus) Rank() int {
	switch s {
	case MessageStatusSent:
		return 1
	case MessageStatusDelivered:
		return 2
	case MessageStatusRead:
		return 3
	default:
		return 0
	}
}

// Valid, bilinen bir durum mu?
func (s MessageStatus) Valid() bool {
	return s.Rank() > 0
}

// DeleteScope, DELETE /message/{id} kapsamı.
type DeleteScope string

const (
	DeleteForMe  DeleteScope = "me"
	DeleteForAll DeleteScope = "all"
)

const maxMessageLength = 4000

// Attachment, mesaja eklenmiş tek dosya.
type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// Message, "messages" tablosunun Go karşılığı.
// ConversationID ve GroupID'den tam olarak biri doludur.
type Message struct {
	ID             string        `json:"id"`
	ConversationID *string       `json:"conversation_id,omitempty"`
	GroupID        *string       `json:"group_id,omitempty"`
	SenderID       string        `json:"sender_id"`
	Body           *string       `json:"body"`
	Attachment     *Attachment   `json:"attachment,omitempty"`
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Sender         *UserSummary  `json:"sender,omitempty"`
	Reactions      []Reaction    `json:"reactions,omitempty"`
}

// SendMessageInput, service katmanına giden mesaj içeriği.
// Handler multipart ya da JSON body'den doldurur.
type SendMessageInput struct {
	Body       string
	Attachment *Attachment
}

func (in *SendMessageInput) Validate() error {
	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" && in.Attachment == nil {
		return fmt.Errorf("message body or attachment is required")
	}
	if utf8.RuneCountInString(in.Body) > maxMessageLength {
		return fmt.Errorf("message must be at most %d characters", maxMessageLength)
	}
	return nil
}

// EditMessageRequest, PATCH /message/{messageId} body'si.
type EditMessageRequest struct {
	Message string `json:"message"`
}

func (r *EditMessageRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return fmt.Errorf("message is required")
	}
	if utf8.RuneCountInString(r.Message) > maxMessageLength {
		return fmt.Errorf("message must be at most %d characters", maxMessageLength)
	}
	return nil
}

type DeleteMessageRequest struct {
	DeleteFor DeleteScope `json:"delete_for"`
}

func (r *DeleteMessageRequest) Validate() error {
	if r.DeleteFor != DeleteForMe && r.DeleteFor != DeleteForAll {
		return fmt.Errorf("delete_for must be \"me\" or \"all\"")
	}
	return nil
}

// UpdateStatusRequest, tekil ve konuşma geneli status güncellemesi.
// "sent" başlangıç durumudur, hedef olarak kabul edilmez.
type UpdateStatusRequest struct {
	Status MessageStatus `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if r.Status != MessageStatusDelivered && r.Status != MessageStatusRead {
		return fmt.Errorf("status must be \"delivered\" or \"read\"")
	}
	return nil
}

// MessageStatusEvent, messageStatusUpdate event payload'ı.
type MessageStatusEvent struct {
	MessageID      string        `json:"message_id"`
	ConversationID *string       `json:"conversation_id,omitempty"`
	GroupID        *string       `json:"group_id,omitempty"`
	Status         MessageStatus `json:"status"`
	UpdatedBy      string        `json:"updated_by"`
}

// MessageDeletedEvent, messageDeleted event payload'ı.
type MessageDeletedEvent struct {
	MessageID      string      `json:"message_id"`
	ConversationID *string     `json:"conversation_id,omitempty"`
	GroupID        *string     `json:"group_id,omitempty"`
	Scope          DeleteScope `json:"scope"`
}

// MessagePage, sayfalı mesaj listesi (grup mesajları).
type MessagePage struct {
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
}
