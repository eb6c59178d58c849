// Package models, veritabanı tablolarının ve API payload'larının Go karşılıklarını içerir.
package models

import (
	"fmt"
	"strings"
	"time"
)

// FriendRequestStatus, arkadaşlık isteğinin durumu.
//
//   - pending:  gönderildi, yanıt bekliyor
//   - accepted: arkadaşlar
//   - rejected: reddedildi veya engel kaldırıldı; yeni istekle tekrar açılabilir
//   - blocked:  taraflardan biri diğerini engelledi
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
	FriendRequestBlocked  FriendRequestStatus = "blocked"
)

// FriendRequest, "friend_requests" tablosunun Go karşılığı.
// Sırasız her kullanıcı çifti için en fazla bir satır vardır.
type FriendRequest struct {
	ID         string              `json:"id"`
	SenderID   string              `json:"sender_id"`
	ReceiverID string              `json:"receiver_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Other, verilen kullanıcının karşısındaki tarafı döner.
func (f *FriendRequest) Other(userID string) string {
	if f.SenderID == userID {
		return f.ReceiverID
	}
	return f.SenderID
}

// FriendRequestWithUser, istek + karşı tarafın özeti (liste endpoint'leri için).
type FriendRequestWithUser struct {
	FriendRequest
	User UserSummary `json:"user"`
}

type SendFriendRequestRequest struct {
	ReceiverID string `json:"receiver_id"`
}

func (r *SendFriendRequestRequest) Validate() error {
	r.ReceiverID = strings.TrimSpace(r.ReceiverID)
	if r.ReceiverID == "" {
		return fmt.Errorf("receiver_id is required")
	}
	return nil
}

// RespondFriendRequestRequest, accept/reject body'si.
type RespondFriendRequestRequest struct {
	RequestID string `json:"request_id"`
}

func (r *RespondFriendRequestRequest) Validate() error {
	r.RequestID = strings.TrimSpace(r.RequestID)
	if r.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	return nil
}

// SortedPair, iki kullanıcı ID'sini sözlük sırasına dizer.
// Sırasız çift üzerindeki UNIQUE constraint'ler bu sırayla yazılır.
func SortedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// FriendRequestAcceptedEvent, kabul yanıtı ve friendRequestAccepted event payload'ı.
// User alıcıya göre karşı taraftır.
type FriendRequestAcceptedEvent struct {
	Request        FriendRequest `json:"request"`
	User           UserSummary   `json:"user"`
	ConversationID string        `json:"conversation_id"`
}
