package datum

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Datum is a shared observable value container. It holds one value, one
// subscriber registry and a change-detection policy; it is created by New,
// shared by reference and never copied.
//
// A set that survives change detection increments the change counter, swaps
// the value, invokes the optional change callback and then notifies every
// registered subscriber synchronously. A set that compares equal does nothing
// at all.
type Datum[T any] struct {
	id           uint64
	label        string
	fallbackName string
	logger       *slog.Logger
	probe        Probe

	// mu protects value and changeCount.
	mu          sync.Mutex
	value       T
	changeCount uint64

	// shallow selects identity comparison; immutable after creation.
	shallow bool

	// equal overrides the mode-selected comparison when non-nil.
	equal func(a, b T) bool

	// onChange is invoked synchronously after every accepted change,
	// before subscribers are notified.
	onChange func(current, prior T)

	subs *registry

	// setFn is the canonical setter handed out by Use and Accessors so
	// callers see a stable function value across renders.
	setFn func(T)
}

// New creates a container holding initial. The default change-detection
// policy is deep structural comparison; pass Shallow() for identity
// comparison. The container lives for the lifetime of the process unless
// every reference is dropped.
func New[T any](initial T, opts ...Option) *Datum[T] {
	o := applyOptions(opts)

	d := &Datum[T]{
		id:      nextID(),
		label:   o.label,
		logger:  o.logger,
		probe:   o.probe,
		value:   initial,
		shallow: o.shallow,
		subs:    newRegistry(),
	}
	d.fallbackName = fmt.Sprintf("datum-%d", d.id)
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.setFn = d.Set

	if d.traced() {
		d.logger.Debug("datum created",
			"datum", d.name(),
			"shallow", d.shallow,
			"value", initial)
	}
	if d.probe != nil {
		d.probe.ContainerCreated(d.name())
	}

	return d
}

// OnChange registers fn to run synchronously after every accepted change,
// with the new and prior value. The stored value is already updated when fn
// runs, and subscribers have not been notified yet. A panic in fn propagates
// to the caller of the setter and aborts the notification pass.
//
// Returns the container for chaining:
//
//	cart := datum.New(Cart{}).OnChange(func(current, prior Cart) {
//	    audit.Record(current, prior)
//	})
func (d *Datum[T]) OnChange(fn func(current, prior T)) *Datum[T] {
	d.onChange = fn
	return d
}

// WithEquals overrides change detection with a custom comparison, replacing
// the deep/shallow policy for this container. Useful when structural
// comparison is too expensive or has the wrong semantics for T.
func (d *Datum[T]) WithEquals(fn func(a, b T) bool) *Datum[T] {
	d.equal = fn
	return d
}

// ID returns the unique identifier for this container.
func (d *Datum[T]) ID() uint64 {
	return d.id
}

// Get returns the current value. It never subscribes, never notifies and is
// safe to call from anywhere, including change callbacks and notify
// callbacks, where it observes the latest committed value.
func (d *Datum[T]) Get() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// ChangeCount returns the number of accepted changes since creation.
// The counter never decreases and increases by exactly one per accepted
// change.
func (d *Datum[T]) ChangeCount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changeCount
}

// current returns value and change count as one consistent observation.
func (d *Datum[T]) current() (T, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.changeCount
}

// Set stores next if it differs from the current value under the container's
// equality policy. On change the change callback and all subscribers run
// synchronously before Set returns; an equal value is a complete no-op.
func (d *Datum[T]) Set(next T) {
	d.write(next, false)
}

// Force stores next unconditionally, skipping comparison. Use it after
// mutating a composite value in place, where reference or structural
// comparison cannot see the edit.
func (d *Datum[T]) Force(next T) {
	d.write(next, true)
}

// Update derives the next value from the current one and applies the normal
// change-detection protocol. fn runs with the container locked: derive the
// next value from prior instead of calling back into the container.
func (d *Datum[T]) Update(fn func(prior T) T) {
	d.update(fn, false)
}

// ForceUpdate is Update with comparison skipped, for updaters that mutate
// the prior value in place and return it.
func (d *Datum[T]) ForceUpdate(fn func(prior T) T) {
	d.update(fn, true)
}

// Subscribe registers a notify callback outside any render lifecycle and
// returns an idempotent cancel. The callback runs synchronously on every
// accepted change, in unspecified order relative to other subscribers.
// Feeds, bridges and tests use this surface; components use the hook.
func (d *Datum[T]) Subscribe(fn func()) (cancel func()) {
	id := nextID()
	d.subs.add(id, fn)

	if d.traced() {
		d.logger.Debug("datum subscriber registered",
			"datum", d.name(),
			"subscriber", id,
			"active", d.subs.count())
	}
	if d.probe != nil {
		d.probe.SubscriberRegistered(d.name(), d.subs.count())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			d.detachSubscriber(id)
		})
	}
}

// SubscriberCount returns the number of currently registered subscribers.
// Intended for instrumentation; the count is a snapshot and may be stale by
// the time the caller reads it.
func (d *Datum[T]) SubscriberCount() int {
	return d.subs.count()
}

// Accessors returns the observer hook, setter and getter as standalone
// functions sharing this container's state, for callers that prefer passing
// closures over passing the container.
func (d *Datum[T]) Accessors() (use func() (T, func(T)), set func(T), get func() T) {
	return d.Use, d.setFn, d.Get
}

// write runs the set protocol for a resolved next value: compare, commit,
// then hand off to finish outside the lock.
func (d *Datum[T]) write(next T, force bool) {
	d.mu.Lock()
	prior := d.value
	changed := force || !d.equals(prior, next)
	if changed {
		d.changeCount++
		d.value = next
	}
	d.mu.Unlock()

	d.finish(next, prior, changed, force)
}

// update resolves an updater against the current value atomically, then
// applies the same protocol as write.
func (d *Datum[T]) update(fn func(prior T) T, force bool) {
	d.mu.Lock()
	prior := d.value
	next := fn(prior)
	changed := force || !d.equals(prior, next)
	if changed {
		d.changeCount++
		d.value = next
	}
	d.mu.Unlock()

	d.finish(next, prior, changed, force)
}

// finish runs the post-commit half of a set attempt: trace, probe, change
// callback, notification. The lock is already released so callbacks may
// re-enter the container freely.
func (d *Datum[T]) finish(next, prior T, changed, force bool) {
	if !changed {
		if d.traced() {
			d.logger.Debug("datum set skipped",
				"datum", d.name(),
				"value", next,
				"subscribers", d.subs.count())
		}
		if d.probe != nil {
			d.probe.SetRecorded(d.name(), OutcomeUnchanged, 0, 0)
		}
		return
	}

	if d.onChange != nil {
		d.onChange(next, prior)
	}

	var start time.Time
	if d.probe != nil {
		start = time.Now()
	}
	notified := d.notify()

	if d.traced() {
		d.logger.Debug("datum set applied",
			"datum", d.name(),
			"value", next,
			"forced", force,
			"subscribers", notified)
	}
	if d.probe != nil {
		outcome := OutcomeChanged
		if force {
			outcome = OutcomeForced
		}
		d.probe.SetRecorded(d.name(), outcome, notified, time.Since(start))
	}
}

// notify invokes every subscriber registered at the start of the pass.
// Detachments during the pass apply to the live registry, so a subscriber
// removed by an earlier callback is skipped; a panic in a callback aborts
// the pass and propagates to the setter's caller. Returns the snapshot size.
func (d *Datum[T]) notify() int {
	snap := d.subs.snapshot()
	for _, e := range snap {
		if !d.subs.contains(e.id) {
			continue
		}
		e.fn()
	}
	return len(snap)
}

// detachSubscriber removes an identity from the registry with trace and
// probe reporting. Safe to call for identities already removed.
func (d *Datum[T]) detachSubscriber(id uint64) {
	if !d.subs.remove(id) {
		return
	}
	if d.traced() {
		d.logger.Debug("datum subscriber detached",
			"datum", d.name(),
			"subscriber", id,
			"active", d.subs.count())
	}
	if d.probe != nil {
		d.probe.SubscriberDetached(d.name(), d.subs.count())
	}
}

// equals applies the container's comparison: the custom function when set,
// otherwise the mode-selected policy.
func (d *Datum[T]) equals(a, b T) bool {
	if d.equal != nil {
		return d.equal(a, b)
	}
	if d.shallow {
		return shallowEqual(a, b)
	}
	return deepEqual(a, b)
}
