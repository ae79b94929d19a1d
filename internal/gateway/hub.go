package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/notify"
)

// Envelope is the JSON frame exchanged with clients in both directions.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

var _ notify.Notifier = (*Hub)(nil)

// Hub tracks the websocket clients of every room and pushes events to them.
type Hub struct {
	ctx context.Context

	mtx   sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(ctx context.Context) *Hub {
	return &Hub{ctx: ctx, rooms: map[string]map[*Client]struct{}{}}
}

func (h *Hub) register(c *Client) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	clients, ok := h.rooms[c.room]
	if !ok {
		clients = map[*Client]struct{}{}
		h.rooms[c.room] = clients
	}
	clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}

	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
}

// Count returns the number of connected clients in the room.
func (h *Hub) Count(room string) int {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) Broadcast(room, event string, payload interface{}) {
	h.deliver(room, "", event, payload)
}

func (h *Hub) Send(room, playerID, event string, payload interface{}) {
	h.deliver(room, playerID, event, payload)
}

func (h *Hub) deliver(room, playerID, event string, payload interface{}) {
	logger := logging.FromContext(h.ctx).Named("gateway.Hub.deliver")

	data, err := json.Marshal(Envelope{Type: event, Payload: payload})
	if err != nil {
		logger.Errorf("marshal %s: %v", event, err)
		return
	}

	h.mtx.RLock()
	defer h.mtx.RUnlock()

	var sent int
	for c := range h.rooms[room] {
		if playerID != "" && c.player != playerID {
			continue
		}

		if !c.enqueue(data) {
			logger.Warnf("room %s: client %s is too slow, closing", room, c.player)
			c.close()
			continue
		}
		sent++
	}

	logger.Debugf("room %s: %s delivered to %d clients", room, event, sent)
}

// Run closes every client once ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()

	h.mtx.RLock()
	defer h.mtx.RUnlock()

	for _, clients := range h.rooms {
		for c := range clients {
			c.close()
		}
	}

	return nil
}
