package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	manager  *Manager
	lastSeen time.Time
}

// Registry maps session ids to carts. Each session's Manager is private to it.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry that forgets sessions idle for longer than idleTTL.
// A zero idleTTL keeps sessions until deleted.
func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create starts a new session with an empty cart
func (r *Registry) Create() (string, *Manager) {
	id := uuid.New().String()
	m := NewManager()

	r.mu.Lock()
	r.sessions[id] = &session{manager: m, lastSeen: r.now()}
	r.mu.Unlock()

	return id, m
}

// Get returns the cart for id and refreshes its idle timer
func (r *Registry) Get(id string) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.manager, true
}

// Delete forgets a session
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes idle sessions and returns how many were removed
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
