package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/sohbet/models"
)

// TokenValidator, bağlantıyı açan token'ı doğrular (imza + oturum).
// services.AuthService bunu karşılar; ws paketi services'i import etmez.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, tokenString string) (*models.TokenClaims, error)
}

// Handler, /ws upgrade isteklerini karşılar.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	cookieName     string
	upgrader       websocket.Upgrader
}

// NewHandler, allowedOrigins boşsa tüm origin'lere izin verir.
func NewHandler(hub *Hub, tokenValidator TokenValidator, cookieName string, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		cookieName:     cookieName,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleConnection, token'ı doğrular, bağlantıyı yükseltir ve Hub'a kaydeder.
//
// Tarayıcı WebSocket isteğine header ekleyemediği için token ya auth cookie'sinden
// ya da ?token= query parametresinden okunur.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if cookie, err := r.Cookie(h.cookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn("upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, sendBufferSize),
	}

	h.hub.setUsername(claims.UserID, claims.Username)
	client.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID, Username: claims.Username}})

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump() // bağlantı kapanana kadar bloklar
}
