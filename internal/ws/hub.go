package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/config"
)

// Pusher delivers an event to a single connection. Implemented by the Hub;
// relays depend on this interface so they can be tested without sockets.
type Pusher interface {
	Push(connID, event string, payload any)
}

// PresenceMirror reflects connect/disconnect into the shared presence store.
// Satisfied by the Redis cache.
type PresenceMirror interface {
	SetPresence(ctx context.Context, userID string, ttl time.Duration) error
	ClearPresence(ctx context.Context, userID string) error
}

// Hub owns the registry and the set of live clients. It is the only place
// that maps a connection id back to a writable socket.
type Hub struct {
	registry *Registry
	presence PresenceMirror
	cfg      *config.Config
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[string]*Client // connID -> client
}

func NewHub(registry *Registry, presence PresenceMirror, cfg *config.Config, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		registry: registry,
		presence: presence,
		cfg:      cfg,
		logger:   logger,
		clients:  make(map[string]*Client),
	}
}

// Registry exposes the identity-to-connection mapping for relays and the
// notification worker.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Add registers a client under its user identity and mirrors presence to
// Redis. A previous connection for the same identity becomes unreachable
// (last write wins) but stays open until it disconnects itself.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c.connID] = c
	h.mu.Unlock()
	h.registry.Register(c.userID, c.connID)
	if err := h.presence.SetPresence(context.Background(), c.userID, h.cfg.PresenceTTL); err != nil {
		h.logger.Warnw("presence mirror set failed", "user", c.userID, "err", err)
	}
}

// Remove drops the client and its registry entry. The registry scan is a
// no-op when a newer handshake already overwrote the mapping.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.connID)
	h.mu.Unlock()
	h.registry.Unregister(c.connID)
	if cur, ok := h.registry.Lookup(c.userID); !ok || cur == c.connID {
		if err := h.presence.ClearPresence(context.Background(), c.userID); err != nil {
			h.logger.Warnw("presence mirror clear failed", "user", c.userID, "err", err)
		}
	}
}

// Push marshals an envelope and enqueues it on the connection's send buffer.
// Unknown connection ids are dropped; a full buffer disconnects the slow
// consumer. The enqueue is safe against a concurrent disconnect because the
// send channel is never closed, only abandoned.
func (h *Hub) Push(connID, event string, payload any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorw("payload marshal failed", "event", event, "err", err)
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Errorw("envelope marshal failed", "event", event, "err", err)
		return
	}
	select {
	case c.send <- frame:
	default:
		h.logger.Warnw("slow consumer, disconnecting", "user", c.userID, "conn", c.connID)
		h.Remove(c)
		c.close()
	}
}

// Close disconnects every client. Used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
	for _, c := range clients {
		h.registry.Unregister(c.connID)
		c.close()
	}
}
