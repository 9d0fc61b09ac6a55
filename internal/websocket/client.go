package websocket

import (
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// inbound is the only shape accepted from clients
type inbound struct {
	Type string `json:"type"`
}

// Client is one websocket connection of a signed-in user
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a new Client instance
func NewClient(hub *Hub, conn *websocket.Conn, userID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 256),
		logger: logger,
	}
}

// UserID returns the owner of the connection
func (c *Client) UserID() string {
	return c.userID
}

// ReadPump reads client frames until the connection closes, then unregisters
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", slog.String("user_id", c.userID), slog.Any("error", err))
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes queued events and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage answers application-level pings; the connection is otherwise push-only
func (c *Client) handleMessage(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(Event{Type: EventError, Error: "invalid message format"})
		return
	}

	switch msg.Type {
	case "ping":
		c.reply(Event{Type: EventPong})
	default:
		c.reply(Event{Type: EventError, Error: "unknown message type"})
	}
}

func (c *Client) reply(ev Event) {
	ev.At = time.Now().UTC()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full, skip
	}
}
