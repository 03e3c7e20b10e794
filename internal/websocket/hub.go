package websocket

import (
	"sync"

	"ai-policydesk-be/internal/pkg/logger"
)

// Hub tracks open chat connections so they can be counted and closed on
// shutdown.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	quit       chan struct{}

	mu     sync.RWMutex
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("Hub", "Client registered", map[string]interface{}{"client_id": client.ID.String()})

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			h.logger.Debug("Hub", "Client unregistered", map[string]interface{}{"client_id": client.ID.String()})

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) add(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client and stops Run. Turns in flight see a
// disconnect and save what they streamed so far.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	for client := range h.clients {
		client.close()
	}
	h.mu.RUnlock()
	close(h.quit)
}
