package websocket

import (
	"encoding/json"
	"sync"

	"whiteboard-relay/internal/dto"
	"whiteboard-relay/internal/pkg/logger"
	"whiteboard-relay/internal/pkg/metrics"

	"github.com/google/uuid"
)

// Hub tracks the live sessions of this relay instance and fans events out
// to them. Each session gets its frames in the order they were enqueued.
type Hub struct {
	// Registered clients by session id.
	clients map[uuid.UUID]*Client

	// Lock for safe map access
	mu sync.RWMutex

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		logger:  log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	count := len(h.clients)
	h.mu.Unlock()

	metrics.ConnectedSessions.Set(float64(count))
	h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.ID, "sessions": count})
}

// Unregister removes the client and closes its Send channel. Safe to call
// more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.ID]
	if ok && current == client {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.ConnectedSessions.Set(float64(count))
		h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"session_id": client.ID, "sessions": count})
	}
}

// Broadcast sends one event to ALL connected clients. Clients whose buffer
// is full are dropped rather than allowed to stall everyone else.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode broadcast", map[string]interface{}{"event": event, "error": err})
		return
	}

	var slow []*Client
	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.evict(client)
	}
}

// Unicast sends one event to a single session. It reports false when the
// session is gone or could not take the frame.
func (h *Hub) Unicast(sessionID uuid.UUID, event string, payload interface{}) bool {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode message", map[string]interface{}{"event": event, "error": err})
		return false
	}

	h.mu.RLock()
	client, ok := h.clients[sessionID]
	delivered := false
	if ok {
		select {
		case client.Send <- data:
			delivered = true
		default:
		}
	}
	h.mu.RUnlock()

	if ok && !delivered {
		h.evict(client)
	}
	return delivered
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every session's Send channel; write pumps then send a
// close frame and hang up.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	metrics.ConnectedSessions.Set(0)
	h.logger.Info("Hub", "All sessions closed", nil)
}

func (h *Hub) evict(client *Client) {
	metrics.DroppedDeliveries.Inc()
	h.logger.Warn("Hub", "Client Send buffer full, dropping session", map[string]interface{}{"session_id": client.ID})
	h.Unregister(client)
}

func encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dto.SocketMessage{Event: event, Data: data})
}
