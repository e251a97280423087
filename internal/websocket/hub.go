package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a real-time event delivered to the clients of one
// household room.
type Message struct {
	Event       string         `json:"event"`
	HouseholdID int64          `json:"household_id"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Hub maintains the set of active WebSocket clients grouped into
// household rooms and broadcasts events to them. It satisfies the
// Notifier interfaces of the household and expense services.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its household's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.householdID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.householdID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from its room and closes its send
// channel. Empty rooms are dropped.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.householdID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.householdID)
		}
	}
	h.mu.Unlock()
}

// HouseholdEvent broadcasts an event to every client in the household's
// room.
func (h *Hub) HouseholdEvent(householdID int64, event string, payload map[string]any) {
	data, err := json.Marshal(Message{
		Event:       event,
		HouseholdID: householdID,
		Payload:     payload,
	})
	if err != nil {
		h.logger.Error("marshal broadcast", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[householdID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// RoomCount returns the number of connected clients for a household.
func (h *Hub) RoomCount(householdID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[householdID])
}
