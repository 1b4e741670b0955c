package venueclient

import (
	"fmt"
	"sync"
)

// Registry holds one Client per venue, letting the Orchestrator drive many
// venues from a single startup wiring step without hard-coding venue names
// into the ingestion loops.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry returns an empty venue registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a venue client. Re-registering the same venue is an error.
func (r *Registry) Register(c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if name == "" {
		return fmt.Errorf("venueclient: registry: client must have a non-empty name")
	}
	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("venueclient: registry: venue %q already registered", name)
	}
	r.clients[name] = c
	return nil
}

// Get retrieves a venue's client.
func (r *Registry) Get(venue string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, exists := r.clients[venue]
	if !exists {
		return nil, fmt.Errorf("venueclient: registry: no client registered for venue %q", venue)
	}
	return c, nil
}

// Venues lists every registered venue name.
func (r *Registry) Venues() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.clients))
	for name := range r.clients {
		out = append(out, name)
	}
	return out
}
