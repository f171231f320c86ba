package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client is one SSE subscriber. StoreID 0 receives every store.
type Client struct {
	ID      string
	StoreID int64
	Send    chan []byte
}

// Hub is the in-process fan-out to connected SSE subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	buffer  int
	dropped atomic.Int64
}

// NewHub returns an empty hub; buffer is the per-client queue size.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{clients: make(map[string]*Client), buffer: buffer}
}

// Subscribe registers a new client for storeID.
func (h *Hub) Subscribe(storeID int64) *Client {
	c := &Client{ID: uuid.NewString(), StoreID: storeID, Send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	return c
}

// Unregister removes the client and closes its queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.Send)
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded because a subscriber's
// queue was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Publish implements Notifier. Slow subscribers lose messages instead of
// blocking the publisher.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !match(c, ev) {
			continue
		}
		select {
		case c.Send <- payload:
		default:
			h.dropped.Add(1)
			zerolog.Ctx(ctx).Debug().Str("client", c.ID).Str("event", ev.Type).Msg("drop message for slow subscriber")
		}
	}
	return nil
}

func match(c *Client, ev Event) bool {
	return c.StoreID == 0 || c.StoreID == ev.StoreID
}
