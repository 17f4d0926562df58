package chathub

import (
	"encoding/json"
	"log"
	"time"

	"chatgogo/store/internal/views"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

// WebSocketClient implements Client for a UI shell connected over WebSocket.
type WebSocketClient struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Manager
	Send chan views.Snapshot
}

// NewWebSocketClient wraps conn with a fresh subscription id.
func NewWebSocketClient(conn *websocket.Conn, hub *Manager) *WebSocketClient {
	return &WebSocketClient{
		ID:   uuid.NewString(),
		Conn: conn,
		Hub:  hub,
		Send: make(chan views.Snapshot, sendBuffer),
	}
}

func (c *WebSocketClient) GetID() string                         { return c.ID }
func (c *WebSocketClient) GetSendChannel() chan<- views.Snapshot { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops writePump.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

// readPump only watches the connection; the stream is one-way. It exits on
// close or read error and unregisters the client.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.Hub.UnregisterCh <- c:
		case <-c.Hub.Done():
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ERROR: Reading from client %s: %v", c.ID, err)
			}
			return
		}
	}
}

// writePump writes snapshots from Send to the connection and keeps it alive
// with pings. Snapshots queued behind the current one supersede it.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			for n := len(c.Send); n > 0; n-- {
				next, ok := <-c.Send
				if !ok {
					break
				}
				snap = next
			}

			data, err := json.Marshal(snap)
			if err != nil {
				log.Printf("ERROR: Encoding snapshot for client %s: %v", c.ID, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
