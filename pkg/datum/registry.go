package datum

import "sync"

// registry maps subscriber identities to their notify callbacks.
// Iteration order during notification is unspecified.
type registry struct {
	mu   sync.RWMutex
	subs map[uint64]func()
}

func newRegistry() *registry {
	return &registry{subs: make(map[uint64]func())}
}

// add registers a notify callback under the given identity.
func (r *registry) add(id uint64, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[id] = fn
}

// remove deletes an identity from the registry.
// Reports whether the identity was present.
func (r *registry) remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return false
	}
	delete(r.subs, id)
	return true
}

// contains reports whether the identity is currently registered.
func (r *registry) contains(id uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[id]
	return ok
}

// count returns the number of active subscribers.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// entry pairs a subscriber identity with its notify callback for a
// notification pass.
type entry struct {
	id uint64
	fn func()
}

// snapshot copies the current subscriber set. A notification pass iterates
// the snapshot while detachments apply to the live registry immediately, so
// a subscriber that detaches mid-pass is skipped and one that registers
// mid-pass waits for the next change.
func (r *registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry, 0, len(r.subs))
	for id, fn := range r.subs {
		out = append(out, entry{id: id, fn: fn})
	}
	return out
}
