package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datalens-cli/internal/session"
)

// Registry keeps live sessions in memory, keyed by a random UUID.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session.Session)}
}

// Add stores s under a new id and returns the id.
func (r *Registry) Add(s *session.Session) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return id
}

// Get returns the session stored under id.
func (r *Registry) Get(id string) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
