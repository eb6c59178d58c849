package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// EventPublisher, service katmanının bildirim göndermek için kullandığı interface.
// Service'ler Hub'a değil buna bağımlıdır; testlerde sahte bir publisher verilir.
type EventPublisher interface {
	BroadcastToUser(userID string, event Event)
	BroadcastToUsers(userIDs []string, event Event)
	IsUserOnline(userID string) bool
	GetOnlineUserIDs() []string
}

// TypingRouter, typing event'inin kime gideceğine karar verir.
// Gönderen o konuşmanın/grubun tarafı değilse ya da engel varsa boş döner.
type TypingRouter func(ctx context.Context, userID string, data TypingData) []string

// Hub, tüm WebSocket bağlantılarını tutar.
type Hub struct {
	// clients: userID → Client set
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	seq atomic.Int64

	// usernames: typing payload'ı için userID → username
	usernames map[string]string
	userMu    sync.RWMutex

	logger *zap.Logger

	// Callback'ler init_callbacks.go'da bağlanır. Hub mutex'i tutulurken
	// çağrılmazlar; her biri ayrı goroutine'de çalışır.
	onUserFirstConnect      func(userID string)
	onUserFullyDisconnected func(userID string)
	typingRouter            TypingRouter
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		usernames:  make(map[string]string),
		logger:     logger.Named("ws"),
	}
}

// OnUserFirstConnect, kullanıcının ilk bağlantısı açıldığında çağrılır (presence: online).
func (h *Hub) OnUserFirstConnect(fn func(userID string)) {
	h.onUserFirstConnect = fn
}

// OnUserFullyDisconnected, kullanıcının son bağlantısı kapandığında çağrılır (presence: offline).
func (h *Hub) OnUserFullyDisconnected(fn func(userID string)) {
	h.onUserFullyDisconnected = fn
}

func (h *Hub) SetTypingRouter(fn TypingRouter) {
	h.typingRouter = fn
}

// Run, register/unregister kanallarını dinler. main'de `go hub.Run()` ile başlar,
// Shutdown çağrılınca döner.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	count := len(h.clients[client.userID])
	h.mu.Unlock()

	h.logger.Debug("client connected", zap.String("user_id", client.userID), zap.Int("connections", count))

	if count == 1 && h.onUserFirstConnect != nil {
		go h.onUserFirstConnect(client.userID)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.clients[client.userID]
	if !ok || !clients[client] {
		h.mu.Unlock()
		return
	}

	delete(clients, client)
	client.closed = true
	close(client.send)

	remaining := len(clients)
	if remaining == 0 {
		delete(h.clients, client.userID)
	}
	h.mu.Unlock()

	if remaining > 0 {
		h.logger.Debug("client disconnected", zap.String("user_id", client.userID), zap.Int("remaining", remaining))
		return
	}

	h.logger.Debug("user fully disconnected", zap.String("user_id", client.userID))
	if h.onUserFullyDisconnected != nil {
		go h.onUserFullyDisconnected(client.userID)
	}
}

// BroadcastToUser, kullanıcının tüm bağlantılarına event gönderir.
// Kullanıcı çevrimdışıysa event düşer; istemci yeniden bağlanınca REST ile senkronize olur.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

// BroadcastToUsers, aynı event'i (tek seq ile) birden fazla kullanıcıya gönderir.
func (h *Hub) BroadcastToUsers(userIDs []string, event Event) {
	if len(userIDs) == 0 {
		return
	}

	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		for client := range h.clients[userID] {
			select {
			case client.send <- data:
			default:
				// Buffer dolu: client yavaş, bağlantı kapatılır.
				go h.drop(client)
			}
		}
	}
}

// drop, client'ı Run döngüsü üzerinden çıkarır. Hub kapandıysa beklemez.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

func (h *Hub) setUsername(userID, username string) {
	h.userMu.Lock()
	defer h.userMu.Unlock()
	h.usernames[userID] = username
}

func (h *Hub) username(userID string) string {
	h.userMu.RLock()
	defer h.userMu.RUnlock()
	return h.usernames[userID]
}

// routeTyping, typing event'ini router'ın seçtiği kullanıcılara iletir.
func (h *Hub) routeTyping(userID string, data TypingData) {
	if h.typingRouter == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	targets := h.typingRouter(ctx, userID, data)
	h.BroadcastToUsers(targets, Event{
		Op: OpTyping,
		Data: TypingEventData{
			UserID:         userID,
			Username:       h.username(userID),
			ConversationID: data.ConversationID,
			GroupID:        data.GroupID,
			IsTyping:       data.IsTyping,
		},
	})
}

// Shutdown, tüm bağlantıları kapatır ve Run döngüsünü durdurur.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	for _, clients := range h.clients {
		for client := range clients {
			client.closed = true
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	close(h.done)
	h.logger.Info("hub shut down, all connections closed")
}
