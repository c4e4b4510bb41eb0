package registry

import "sync"

// Registry is a process-wide key/value store whose keys can be frozen once
// the extension points they hold have been applied.
type Registry struct {
	mu     sync.RWMutex
	values map[string]interface{}
	locked map[string]bool
}

// GlobalRegistry holds the cmd, cron and api extension lists.
var GlobalRegistry = New()

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		values: make(map[string]interface{}),
		locked: make(map[string]bool),
	}
}

// SetGlobal stores v under key. Panics if key is locked.
func (r *Registry) SetGlobal(key string, v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked[key] {
		panic("core/registry: key locked: " + key)
	}
	r.values[key] = v
}

// GetGlobal returns the value stored under key.
func (r *Registry) GetGlobal(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Lock freezes key; later SetGlobal calls panic.
func (r *Registry) Lock(key string) {
	r.mu.Lock()
	r.locked[key] = true
	r.mu.Unlock()
}

// IsLocked reports whether key is frozen.
func (r *Registry) IsLocked(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked[key]
}

// UnlockForTesting thaws key so tests can register again.
func (r *Registry) UnlockForTesting(key string) {
	r.mu.Lock()
	delete(r.locked, key)
	r.mu.Unlock()
}
