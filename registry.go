package awaittree

import (
	"sync"
	"weak"
)

// anonKey is the map key used for registrations that carry no caller-supplied
// key, the anonymous registration form. A pointer-identity type
// keeps every anonymous registration distinct without the registry needing
// its own counter.
type anonKey struct{ _ int }

// Registry is a weakly-held directory of live Contexts.
// It does not keep a Context alive: once every RootHandle referencing a
// Context is gone, the entry silently stops resolving on the next Collect.
type Registry struct {
	mu      sync.RWMutex
	entries map[any]weak.Pointer[Context]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[any]weak.Pointer[Context])}
}

// Register associates key with tc's context, replacing any prior
// registration under the same key.
func (r *Registry) Register(key any, tc *Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = weak.Make(tc)
}

// RegisterAnonymous registers tc under a fresh, unexported key and returns it
// so the caller can later Deregister the same entry if it wants to.
func (r *Registry) RegisterAnonymous(tc *Context) any {
	key := new(anonKey)
	r.Register(key, tc)
	return key
}

// Deregister removes key's entry, if any.
func (r *Registry) Deregister(key any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Get resolves key to its live Context, returning (nil, false) if there is
// no registration, or the registration's Context has already been collected.
func (r *Registry) Get(key any) (*Context, bool) {
	r.mu.RLock()
	weakPtr, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	tc := weakPtr.Value()
	return tc, tc != nil
}

// Clear drops every registration, live or already-collected.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[any]weak.Pointer[Context])
}

// Collect resolves every registration whose key has the dynamic type K and
// returns the surviving (key, *Context) pairs. Entries whose Context has
// already been collected are skipped, not pruned: query methods take a
// reader lock and leave cleanup of dead entries to Register (which
// overwrites) and Clear.
func Collect[K comparable](r *Registry) map[K]*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[K]*Context)
	for k, weakPtr := range r.entries {
		key, ok := k.(K)
		if !ok {
			continue
		}
		tc := weakPtr.Value()
		if tc == nil {
			continue
		}
		out[key] = tc
	}
	return out
}

// CollectAnonymous resolves every still-live registration made through
// RegisterAnonymous.
func (r *Registry) CollectAnonymous() []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Context
	for k, weakPtr := range r.entries {
		if _, ok := k.(*anonKey); !ok {
			continue
		}
		tc := weakPtr.Value()
		if tc == nil {
			continue
		}
		out = append(out, tc)
	}
	return out
}

// CollectAll resolves every still-live registration regardless of key type.
func (r *Registry) CollectAll() []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Context
	for k, weakPtr := range r.entries {
		tc := weakPtr.Value()
		if tc == nil {
			continue
		}
		out = append(out, tc)
	}
	return out
}
