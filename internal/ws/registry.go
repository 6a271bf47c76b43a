package ws

import "sync"

// Registry maps a user identity to its active connection id. One connection
// per user: a re-handshake overwrites the previous entry, so only the most
// recent connection is reachable for that identity.
//
// The registry is process-local and never persisted; it empties on restart.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string // userID -> connID
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]string)}
}

// Register records userID -> connID, unconditionally overwriting any
// existing mapping for userID (last write wins).
func (r *Registry) Register(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = connID
}

// Unregister removes the entry whose connection id equals connID. No-op if
// no entry matches, which happens when a newer handshake already overwrote
// the mapping. Linear in active connections; fine at this scale.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uid, cid := range r.conns {
		if cid == connID {
			delete(r.conns, uid)
			return
		}
	}
}

// Lookup returns the connection id for userID. Absence means the user is
// offline and is an expected outcome, never an error.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.conns[userID]
	return connID, ok
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
