// Package host is a minimal cooperative runtime for components that read
// shared containers through their observer hooks. It serializes rendering on
// one goroutine, turns container notifications into dirty flags, and runs
// hook activations after commit, in the order the container lifecycle
// expects.
package host

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned by Mount after the runtime has been stopped.
var ErrStopped = errors.New("host: runtime stopped")

// Patch is one rendered fragment ready for delivery.
type Patch struct {
	// Instance is the ID of the instance that produced the fragment.
	Instance string `json:"instance"`

	// HTML is the complete rendered output of that instance.
	HTML string `json:"html"`
}

// Runtime hosts mounted component instances and serializes rendering on one
// goroutine. External code hands work to the loop with Dispatch; container
// notifications mark instances dirty from any goroutine and the loop renders
// them on its next turn.
//
// Each turn runs in commit order: dispatched work first, then dirty
// instances are re-rendered and their patches emitted, then the activations
// queued by those renders. A hook minted during a render joins its
// container's registry only in that last step; the container's baseline
// comparison covers changes that land in between.
type Runtime struct {
	config *Config
	logger *slog.Logger

	// mu protects instances and byID.
	mu        sync.Mutex
	instances []*Instance
	byID      map[string]*Instance

	dispatchCh chan func()
	renderCh   chan struct{}
	patches    chan Patch
	done       chan struct{}
	closed     atomic.Bool
}

// NewRuntime creates a runtime with the given configuration.
// A nil config uses DefaultConfig().
func NewRuntime(config *Config) *Runtime {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runtime{
		config:     config,
		logger:     logger,
		byID:       make(map[string]*Instance),
		dispatchCh: make(chan func(), config.DispatchQueue),
		renderCh:   make(chan struct{}, 1),
		patches:    make(chan Patch, config.PatchQueue),
		done:       make(chan struct{}),
	}
}

// Mount mounts component as a root instance: render, emit the initial patch,
// then run activations so the instance's hooks join their registries.
func (r *Runtime) Mount(component Component) (*Instance, error) {
	return r.mount(component, nil)
}

// MountChild mounts component under parent. Unmounting the parent unmounts
// the child first.
func (r *Runtime) MountChild(parent *Instance, component Component) (*Instance, error) {
	return r.mount(component, parent)
}

func (r *Runtime) mount(component Component, parent *Instance) (*Instance, error) {
	if r.closed.Load() {
		return nil, ErrStopped
	}

	inst := newInstance(component, parent, r)

	r.mu.Lock()
	r.instances = append(r.instances, inst)
	r.byID[inst.ID] = inst
	r.mu.Unlock()

	// Every dispose path drops the instance from the runtime, whether it
	// came through Unmount, a parent's teardown or Stop.
	inst.scope.OnCleanup(func() { r.remove(inst) })

	html := r.renderInstance(inst)
	r.emit(Patch{Instance: inst.ID, HTML: html})
	inst.scope.RunActivations()

	r.logger.Debug("mounted instance", "instance", inst.ID)
	return inst, nil
}

// Unmount disposes the instance's scope, which detaches every subscription
// its hooks registered and removes it from the runtime. Idempotent.
func (r *Runtime) Unmount(inst *Instance) {
	inst.scope.Dispose()
	r.logger.Debug("unmounted instance", "instance", inst.ID)
}

func (r *Runtime) remove(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, inst.ID)
	for i, in := range r.instances {
		if in == inst {
			r.instances = append(r.instances[:i], r.instances[i+1:]...)
			return
		}
	}
}

// Lookup returns the mounted instance with the given ID.
func (r *Runtime) Lookup(id string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.byID[id]
	return inst, ok
}

// InstanceCount returns the number of mounted instances.
func (r *Runtime) InstanceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Dispatch queues fn to run on the runtime loop. This is safe to call from
// any goroutine and is the correct way to update containers from
// asynchronous operations when rendering must stay serialized with the
// update.
//
// After fn completes, dirty instances re-render in the same turn.
//
// Example:
//
//	go func() {
//	    resp, err := client.Fetch(ctx, id)
//	    rt.Dispatch(func() {
//	        if err != nil {
//	            errDatum.Set(err.Error())
//	            return
//	        }
//	        userDatum.Set(resp.User)
//	    })
//	}()
func (r *Runtime) Dispatch(fn func()) {
	if r.closed.Load() {
		return
	}
	select {
	case r.dispatchCh <- fn:
	case <-r.done:
		// Runtime is stopping, discard.
	default:
		r.logger.Warn("dispatch queue full, discarding callback")
	}
}

// Patches returns the channel of rendered fragments. Consumers should select
// on it together with Done; the channel is never closed.
func (r *Runtime) Patches() <-chan Patch {
	return r.patches
}

// Done returns a channel that's closed when the runtime stops.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

// Run processes dispatched work and render requests until Stop.
// It must run on exactly one goroutine.
func (r *Runtime) Run() {
	for {
		select {
		case fn := <-r.dispatchCh:
			r.executeDispatch(fn)

		case <-r.renderCh:
			r.renderDirty()

		case <-r.done:
			return
		}
	}
}

// Stop terminates the loop and unmounts every instance, roots last.
// Safe to call more than once.
func (r *Runtime) Stop() {
	if r.closed.Swap(true) {
		return
	}
	close(r.done)

	r.mu.Lock()
	instances := make([]*Instance, len(r.instances))
	copy(instances, r.instances)
	r.mu.Unlock()

	for i := len(instances) - 1; i >= 0; i-- {
		instances[i].scope.Dispose()
	}

	r.logger.Debug("runtime stopped")
}

// scheduleRender wakes the loop for a render pass. Non-blocking; the
// single-slot channel coalesces bursts of dirty marks into one pass.
func (r *Runtime) scheduleRender() {
	select {
	case r.renderCh <- struct{}{}:
	default:
	}
}

// executeDispatch runs a dispatched function with panic recovery, then
// re-renders whatever it dirtied.
func (r *Runtime) executeDispatch(fn func()) {
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("dispatch panic",
					"panic", rec,
					"stack", string(debug.Stack()))
			}
		}()
		fn()
	}()

	r.renderDirty()
}

// renderDirty re-renders every dirty instance, emits patches, then runs the
// activations those renders queued. An activation that detects a missed
// change marks its instance dirty again and the loop picks it up on the next
// turn.
func (r *Runtime) renderDirty() {
	for _, inst := range r.takeDirty() {
		html := r.renderInstance(inst)
		r.emit(Patch{Instance: inst.ID, HTML: html})
		inst.scope.RunActivations()
	}
}

// takeDirty claims all dirty instances in mount order.
func (r *Runtime) takeDirty() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dirty []*Instance
	for _, inst := range r.instances {
		if inst.dirty.CompareAndSwap(true, false) {
			dirty = append(dirty, inst)
		}
	}
	return dirty
}

// renderInstance renders with panic recovery. On panic the previous output
// is kept and the instance stays clean so a broken component cannot spin the
// loop.
func (r *Runtime) renderInstance(inst *Instance) (html string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("render panic",
				"instance", inst.ID,
				"panic", rec,
				"stack", string(debug.Stack()))
			html = inst.HTML()
		}
	}()
	return inst.render()
}

// emit hands a patch to the consumer without blocking the loop.
func (r *Runtime) emit(p Patch) {
	if r.closed.Load() {
		return
	}
	select {
	case r.patches <- p:
	default:
		r.logger.Warn("patch queue full, dropping patch", "instance", p.Instance)
	}
}
