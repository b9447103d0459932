package datum

import (
	"sync"
	"sync/atomic"
)

// Scope is the render-lifecycle surface a host supplies per mounted component
// instance. It provides the three primitives the observer hook needs: a
// request-re-render callback, activation callbacks that run when the instance
// commits, and slot storage giving hook state a stable identity across
// renders.
//
// Scopes form a hierarchy mirroring the component tree. Disposing a scope
// disposes its children first (in reverse creation order), then runs its
// cleanups in reverse registration order, exactly once.
type Scope struct {
	id uint64

	// parent is the parent Scope, nil for a root.
	parent *Scope

	children   []*Scope
	childrenMu sync.Mutex

	// invalidate requests a re-render of the owning instance.
	// nil for scopes that never render (session roots).
	invalidate func()

	// cleanups run on dispose, reverse order.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// activations run when the owning instance commits to the tree.
	activations   []func()
	activationsMu sync.Mutex

	// slots store per-hook state for stable identity across renders.
	slots   []any
	slotIdx int

	disposed atomic.Bool
}

// NewScope creates a scope under parent (nil for a root). invalidate is the
// host's request-re-render primitive for the owning instance; a scope with a
// nil invalidate can still own children and cleanups but its hooks never
// subscribe.
func NewScope(parent *Scope, invalidate func()) *Scope {
	s := &Scope{
		id:         nextID(),
		parent:     parent,
		invalidate: invalidate,
	}
	if parent != nil {
		parent.addChild(s)
	}
	return s
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed reports whether Dispose has run.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

func (s *Scope) addChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	s.children = append(s.children, child)
}

func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run when this scope is disposed. If the scope is
// already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}
	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// OnActive registers fn to run when the owning instance commits to the tree.
// The host drains these via RunActivations after applying a render; a render
// that is discarded before commit never activates. Registering on a disposed
// scope is a no-op.
func (s *Scope) OnActive(fn func()) {
	if s.disposed.Load() {
		return
	}
	s.activationsMu.Lock()
	defer s.activationsMu.Unlock()
	s.activations = append(s.activations, fn)
}

// RunActivations executes and clears pending activation callbacks, then
// recurses into children. The host calls this after commit; this ordering is
// what closes the window between a component's first render and its
// subscription becoming active.
func (s *Scope) RunActivations() {
	if s.disposed.Load() {
		return
	}

	s.activationsMu.Lock()
	pending := s.activations
	s.activations = nil
	s.activationsMu.Unlock()

	for _, fn := range pending {
		fn()
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.childrenMu.Unlock()

	for _, child := range children {
		child.RunActivations()
	}
}

// HasPendingActivations reports whether this scope or any child has
// activation callbacks waiting for commit.
func (s *Scope) HasPendingActivations() bool {
	if s.disposed.Load() {
		return false
	}

	s.activationsMu.Lock()
	pending := len(s.activations) > 0
	s.activationsMu.Unlock()
	if pending {
		return true
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.childrenMu.Unlock()

	for _, child := range children {
		if child.HasPendingActivations() {
			return true
		}
	}
	return false
}

// BeginRender resets the hook slot cursor. The host calls this before every
// render of the owning instance so hooks reclaim their slots in call order.
func (s *Scope) BeginRender() {
	s.slotIdx = 0
}

// UseSlot returns the stored value for the current hook slot, or nil on the
// first render, advancing the cursor either way. A nil result means the hook
// should create its state and store it with SetSlot.
func (s *Scope) UseSlot() any {
	idx := s.slotIdx
	s.slotIdx++
	if idx < len(s.slots) {
		return s.slots[idx]
	}
	return nil
}

// SetSlot stores a value in the slot UseSlot just returned nil for.
func (s *Scope) SetSlot(value any) {
	s.slots = append(s.slots, value)
}

// Dispose tears the scope down: children in reverse creation order, then
// cleanups in reverse registration order. Safe to call more than once; only
// the first call runs anything.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	s.activationsMu.Lock()
	s.activations = nil
	s.activationsMu.Unlock()
}
