// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı bildirimleri sağlar.
//
// Mimari:
//   - Hub: userID → bağlantı kümesi. Bir kullanıcının birden fazla sekmesi olabilir.
//   - Client: tek bir WebSocket bağlantısı (ReadPump + WritePump)
//   - Event: {op, d, seq} zarfı
//
// Akış: HTTP isteği → Service → DB → Service, EventPublisher üzerinden ilgili
// kullanıcılara event yollar → Hub → Client.WritePump → soket.
package ws

// Event, soket üzerinden giden/gelen tek mesaj.
// Seq her outbound event'te artar; client kayıp event'i buradan anlar.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server
const (
	OpHeartbeat = "heartbeat"
	OpTyping    = "typing"
)

// Server → Client
const (
	OpReady        = "ready"
	OpHeartbeatAck = "heartbeat_ack"

	OpNewMessage          = "newMessage"
	OpMessageStatusUpdate = "messageStatusUpdate"
	OpMessageUpdated      = "messageUpdated"
	OpMessageDeleted      = "messageDeleted"
	OpReactionUpdate      = "reactionUpdate"

	OpNewCallLog = "newCallLog"

	OpNewFriendRequest      = "newFriendRequest"
	OpFriendRequestAccepted = "friendRequestAccepted"

	OpGroupUpdated = "groupUpdated"
	OpGroupDeleted = "groupDeleted"

	OpUserOnline  = "userOnline"
	OpUserOffline = "userOffline"
)

// ReadyData, bağlantı kurulunca gönderilen ilk event'in payload'ı.
type ReadyData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// PresenceData, userOnline / userOffline payload'ı.
type PresenceData struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
	LastSeen string `json:"last_seen,omitempty"`
}

// TypingData, client'ın gönderdiği typing payload'ı.
// ConversationID ve GroupID'den biri dolu olmalı.
type TypingData struct {
	ConversationID string `json:"conversation_id,omitempty"`
	GroupID        string `json:"group_id,omitempty"`
	IsTyping       bool   `json:"is_typing"`
}

// TypingEventData, diğer katılımcılara iletilen typing payload'ı.
type TypingEventData struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	ConversationID string `json:"conversation_id,omitempty"`
	GroupID        string `json:"group_id,omitempty"`
	IsTyping       bool   `json:"is_typing"`
}
