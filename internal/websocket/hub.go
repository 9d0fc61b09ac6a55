package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Event types pushed to connected users.
const (
	EventScheduledEmailSent   = "scheduled_email.sent"
	EventScheduledEmailFailed = "scheduled_email.failed"
	EventSnoozeResurfaced     = "snooze.resurfaced"
	EventSnoozeFailed         = "snooze.failed"
	EventError                = "error"
	EventPong                 = "pong"
)

// Event is the envelope of every server-to-client message
type Event struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	At    time.Time   `json:"at"`
}

// Hub tracks connected clients per user and fans events out to them
type Hub struct {
	// Connected clients grouped by user id
	users map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Events waiting to be delivered
	outbound chan *userMessage

	// Closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

type userMessage struct {
	userID  string
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan *userMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and closes every client when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, clients := range h.users {
				for client := range clients {
					close(client.send)
				}
				delete(h.users, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.users[client.userID] == nil {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", slog.String("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.users[client.userID]; ok && clients[client] {
				delete(clients, client)
				close(client.send)
				if len(clients) == 0 {
					delete(h.users, client.userID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", slog.String("user_id", client.userID))

		case msg := <-h.outbound:
			h.mu.RLock()
			for client := range h.users[msg.userID] {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// NotifyUser queues an event for every connection of userID.
// Delivery is best effort: the event is dropped when the queue is full.
func (h *Hub) NotifyUser(userID, event string, payload interface{}) {
	data, err := json.Marshal(Event{Type: event, Data: payload, At: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to marshal event", slog.String("event", event), slog.Any("error", err))
		return
	}

	select {
	case h.outbound <- &userMessage{userID: userID, message: data}:
	default:
		h.logger.Warn("event dropped, hub queue full", slog.String("user_id", userID), slog.String("event", event))
	}
}

// ClientCount returns the number of open connections for userID
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
