// Package session tracks the MCP clients that completed an initialize
// handshake with this server.
package session

import (
	"sort"
	"strings"
	"sync"

	"mcp-mqtt/topic"
)

// Registry is a set of client ids guarded by a single mutex.
type Registry struct {
	mu      sync.Mutex
	clients map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]struct{})}
}

// Insert adds id and reports whether it was not already present.
func (r *Registry) Insert(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; ok {
		return false
	}
	r.clients[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return false
	}
	delete(r.clients, id)
	return true
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.clients[id]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// List returns the registered ids in lexical order.
func (r *Registry) List() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// ClientFromPresenceTopic extracts the client id from a client presence
// topic. It returns false when t is not a presence topic or carries an
// empty id.
func ClientFromPresenceTopic(t string) (string, bool) {
	id, ok := strings.CutPrefix(t, topic.ClientPresencePrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
