package host

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/datum-dev/datum/pkg/datum"
)

// Component is the interface for renderable components. A component reads
// shared state through container hooks during Render; the state itself lives
// in the containers, not the component.
type Component interface {
	// Render returns the rendered fragment for this component.
	Render() string
}

// Func wraps a render function as a Component.
type Func func() string

// Render calls the wrapped function.
func (f Func) Render() string {
	return f()
}

// Instance represents a mounted component. It owns the activation scope that
// gives the component's hooks stable slots across renders, commit callbacks
// and teardown on unmount.
type Instance struct {
	// ID is the unique instance identifier.
	ID string

	component Component
	scope     *datum.Scope
	runtime   *Runtime

	// dirty indicates the instance needs re-rendering.
	dirty atomic.Bool

	htmlMu   sync.Mutex
	lastHTML string
}

// instanceIDCounter is used to generate unique instance IDs.
var instanceIDCounter atomic.Uint64

func nextInstanceID() string {
	return fmt.Sprintf("i%d", instanceIDCounter.Add(1))
}

func newInstance(component Component, parent *Instance, rt *Runtime) *Instance {
	inst := &Instance{
		ID:        nextInstanceID(),
		component: component,
		runtime:   rt,
	}

	var parentScope *datum.Scope
	if parent != nil {
		parentScope = parent.scope
	}
	inst.scope = datum.NewScope(parentScope, inst.MarkDirty)

	return inst
}

// render runs the component under the instance's scope and stores the output.
// Hooks called by Render reclaim their slots in call order.
func (inst *Instance) render() string {
	var html string
	inst.scope.BeginRender()
	datum.WithScope(inst.scope, func() {
		html = inst.component.Render()
	})

	inst.htmlMu.Lock()
	inst.lastHTML = html
	inst.htmlMu.Unlock()

	return html
}

// HTML returns the most recently rendered output.
func (inst *Instance) HTML() string {
	inst.htmlMu.Lock()
	defer inst.htmlMu.Unlock()
	return inst.lastHTML
}

// MarkDirty flags the instance for re-rendering and wakes the runtime loop.
// Safe to call from any goroutine; container hooks use it as the instance's
// re-render request, so it fires synchronously inside notification passes.
func (inst *Instance) MarkDirty() {
	if inst.dirty.CompareAndSwap(false, true) {
		inst.runtime.scheduleRender()
	}
}

// IsDirty reports whether the instance needs re-rendering.
func (inst *Instance) IsDirty() bool {
	return inst.dirty.Load()
}

// IsMounted reports whether the instance is still part of its runtime.
func (inst *Instance) IsMounted() bool {
	return !inst.scope.IsDisposed()
}
