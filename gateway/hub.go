package gateway

import (
	"sync"

	"go.uber.org/zap"
)

// WebSocketHub tracks live connections by clientID, grounded on the
// teacher's WebSocketHub register/unregister channel pair, narrowed
// from a broadcast registry to per-client lookup since streaming is
// routed per-session rather than fanned out to subscribers.
type WebSocketHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

func NewWebSocketHub(log *zap.Logger) *WebSocketHub {
	return &WebSocketHub{clients: make(map[string]*Client), log: log}
}

func (h *WebSocketHub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	if h.log != nil {
		h.log.Info("client connected", zap.String("clientId", c.id), zap.Int("total", len(h.clients)))
	}
}

func (h *WebSocketHub) remove(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, clientID)
	if h.log != nil {
		h.log.Info("client disconnected", zap.String("clientId", clientID), zap.Int("total", len(h.clients)))
	}
}

func (h *WebSocketHub) get(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[clientID]
	return c, ok
}

// Count returns the number of live connections, for health reporting.
func (h *WebSocketHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
