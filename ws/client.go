package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait: tek bir yazma için süre sınırı.
	writeWait = 10 * time.Second

	// pongWait: client 30 sn'de bir heartbeat yollar; 3 kaçırma = kopmuş sayılır.
	pongWait = 90 * time.Second

	// Büyük veri HTTP ile gelir; soketten sadece küçük kontrol mesajları okunur.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısı.
//
// Her bağlantı için iki goroutine çalışır: ReadPump client'tan okur,
// WritePump send kanalından soketi besler. gorilla/websocket aynı anda
// tek okuyucu ve tek yazıcıya izin verir.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	mu     sync.Mutex // conn yazmalarını korur

	// closed, send kapatıldığında true olur. hub.mu ile korunur.
	closed bool
}

// ReadPump, bağlantı kapanana kadar client mesajlarını okur.
// Dönerken client'ı Hub'dan çıkarır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.logger.Warn("failed to set read deadline", zap.String("user_id", c.userID), zap.Error(err))
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Info("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.hub.logger.Debug("invalid message", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpTyping:
		c.handleTyping(event)

	default:
		c.hub.logger.Debug("unknown op", zap.String("user_id", c.userID), zap.String("op", event.Op))
	}
}

// handleTyping, typing payload'ını çözer ve Hub'a yönlendirir.
// event.Data `any` olarak gelir; marshal/unmarshal ile struct'a çevrilir.
func (c *Client) handleTyping(event Event) {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return
	}

	var data TypingData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	if (data.ConversationID == "") == (data.GroupID == "") {
		return
	}

	go c.hub.routeTyping(c.userID, data)
}

// sendEvent, sadece bu bağlantıya event yollar.
func (c *Client) sendEvent(event Event) {
	event.Seq = c.hub.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		c.hub.logger.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return
	}

	// Hub bağlantıyı çıkarmış olabilir; kapalı kanala yazılmaz.
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("send buffer full, dropping connection", zap.String("user_id", c.userID))
		go c.hub.drop(c)
	}
}

// WritePump, send kanalını sokete yazar. Kanal kapanınca close frame gönderip çıkar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, nil)
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
