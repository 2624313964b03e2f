package reminder

import (
	"sync"

	"morningbot/internal/shared"
)

// Registry is the in-memory index from user ID to live Trigger. It has no
// durability; the service rebuilds it from the schedule store at startup.
// The registry exclusively owns all live triggers.
type Registry struct {
	mu       sync.RWMutex
	triggers map[int64]*Trigger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{triggers: make(map[int64]*Trigger)}
}

// Register records the mapping for the trigger's user. Registering over an
// existing live trigger is a programming-contract violation: callers must
// cancel first.
func (r *Registry) Register(t *Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.triggers[t.userID]; exists {
		return shared.InvariantF(false, "trigger already registered for user %d", t.userID)
	}
	r.triggers[t.userID] = t
	return nil
}

// Cancel marks the user's trigger cancelled and removes the mapping.
// It returns the removed trigger so the caller can detach its schedule loop,
// and whether one existed.
func (r *Registry) Cancel(userID int64) (*Trigger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.triggers[userID]
	if !ok {
		return nil, false
	}
	t.Cancel()
	delete(r.triggers, userID)
	return t, true
}

// Get returns the live trigger for the user, if any.
func (r *Registry) Get(userID int64) (*Trigger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.triggers[userID]
	return t, ok
}

// Len returns the number of live triggers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.triggers)
}
