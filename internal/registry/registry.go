package registry

import (
	"sync"

	"github.com/mhutchin/wordrush/internal/model"
)

// Registry is the authoritative map from live transport connections to
// logical player identities. It is purely in-process state: it has no
// storage side effects and its lifetime is the process lifetime. It is
// injected into handlers rather than held as ambient state so the
// presence machinery can be tested in isolation.
//
// The mapping is many-to-one: several connections may claim the same
// player identity (multi-device), while each connection maps to at most
// one player.
type Registry struct {
	mu      sync.RWMutex
	players map[model.ConnID]model.PlayerID
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		players: make(map[model.ConnID]model.PlayerID),
	}
}

// Register associates a connection with a player identity. Re-registering
// overwrites any prior association for that connection. The identity
// claim is not validated here.
func (r *Registry) Register(connID model.ConnID, playerID model.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[connID] = playerID
}

// Lookup returns the player identity registered for a connection,
// reporting whether one exists
func (r *Registry) Lookup(connID model.ConnID) (model.PlayerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	playerID, ok := r.players[connID]
	return playerID, ok
}

// Remove deletes a connection's association on transport teardown.
// Safe to call when no association exists.
func (r *Registry) Remove(connID model.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, connID)
}

// Count returns the number of registered connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
