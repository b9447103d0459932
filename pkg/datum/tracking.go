package datum

import (
	"runtime"
	"sync"
)

// scopeContexts stores the active scope per goroutine so hooks can find
// their scope without threading it through every component function.
var scopeContexts sync.Map

// goroutineID returns a unique identifier for the current goroutine by
// parsing the runtime stack header. Implementation detail; not exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentScope returns the scope active on this goroutine, or nil when no
// render is in progress.
func currentScope() *Scope {
	if s, ok := scopeContexts.Load(goroutineID()); ok {
		return s.(*Scope)
	}
	return nil
}

// setCurrentScope installs s as the active scope for this goroutine and
// returns the previous one so it can be restored.
func setCurrentScope(s *Scope) *Scope {
	gid := goroutineID()
	var old *Scope
	if prev, ok := scopeContexts.Load(gid); ok {
		old = prev.(*Scope)
	}
	if s == nil {
		scopeContexts.Delete(gid)
	} else {
		scopeContexts.Store(gid, s)
	}
	return old
}

// WithScope runs fn with s as the active scope for hook calls. Hosts wrap
// component renders in this; nesting restores the outer scope on return.
//
//	datum.WithScope(instance.Scope(), func() {
//	    html = component.Render()
//	})
func WithScope(s *Scope, fn func()) {
	old := setCurrentScope(s)
	defer setCurrentScope(old)
	fn()
}
