package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a live event pushed to a staff member's open connections.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub tracks live connections per staff member.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.staffID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.staffID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.staffID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.staffID)
		}
	}
	h.mu.Unlock()
}

// SendTo delivers msg to every connection of one staff member and reports
// how many connections accepted it.
func (h *Hub) SendTo(staffID string, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[staffID] {
		select {
		case c.send <- data:
			delivered++
		default:
			// buffer full, drop
		}
	}
	return delivered
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
