package bridge

import (
	"sync"
	"sync/atomic"
)

// Hub fans device frames out to connected clients (in-memory). A client
// whose buffer is full misses the frame.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]chan []byte
	nextID  uint64
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint64]chan []byte)}
}

// Register adds a client with room for buf pending frames.
func (h *Hub) Register(buf int) (uint64, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan []byte, buf)
	h.clients[h.nextID] = ch
	return h.nextID, ch
}

// Unregister removes the client and closes its channel.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
}

// CloseAll unregisters every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		delete(h.clients, id)
		close(ch)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast offers p to every client without blocking and returns how many
// accepted it.
func (h *Hub) Broadcast(p []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, ch := range h.clients {
		select {
		case ch <- p:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}
	return delivered
}

// Dropped returns the number of frames lost to full client buffers.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
