package datum

// subState tracks a subscription through its lifecycle. The only legal
// transitions are created→active, created→detached (render discarded before
// commit) and active→detached; detached is terminal.
type subState int

const (
	subCreated subState = iota
	subActive
	subDetached
)

// subscription is the per-instance record behind Use: the minted identity,
// the change count observed at creation, and the owner's re-render request.
// It is owned by one hook slot and dies with the instance.
type subscription[T any] struct {
	d        *Datum[T]
	id       uint64
	baseline uint64
	notify   func()
	state    subState
}

// Use returns the current value and the shared setter, registering the
// calling component instance as a subscriber. Call it unconditionally on
// every render of the component.
//
// On the first render for an instance, Use mints a subscription and parks it
// in a hook slot; the subscription enters the registry only when the host
// commits the instance and runs its activations. If a change lands between
// that first render and activation, activation detects it by comparing the
// live change count against the subscription's baseline and re-renders the
// owner once, so the instance never shows the pre-change value indefinitely.
//
// Unmounting the instance detaches the subscription exactly once; a remount
// creates a brand-new subscription. Outside any scope (or under a scope that
// cannot render), Use degrades to a plain read plus setter.
func (d *Datum[T]) Use() (T, func(T)) {
	sc := currentScope()
	if sc == nil || sc.invalidate == nil {
		return d.Get(), d.setFn
	}

	if slot := sc.UseSlot(); slot != nil {
		// Subsequent render of the same instance: the subscription already
		// exists, hand back the current value.
		return d.Get(), d.setFn
	}

	value, count := d.current()

	sub := &subscription[T]{
		d:        d,
		id:       nextID(),
		baseline: count,
		notify:   sc.invalidate,
	}
	sc.SetSlot(sub)
	sc.OnActive(sub.activate)
	sc.OnCleanup(sub.detach)

	return value, d.setFn
}

// activate moves the subscription into the registry. Runs when the host
// commits the owning instance. If the container changed since the baseline
// was taken, the owner missed that notification pass and gets exactly one
// replacement re-render here.
func (s *subscription[T]) activate() {
	if s.state != subCreated {
		return
	}
	s.state = subActive

	d := s.d
	d.subs.add(s.id, s.notify)

	if d.traced() {
		d.logger.Debug("datum subscriber registered",
			"datum", d.name(),
			"subscriber", s.id,
			"active", d.subs.count())
	}
	if d.probe != nil {
		d.probe.SubscriberRegistered(d.name(), d.subs.count())
	}

	if d.ChangeCount() != s.baseline {
		if d.traced() {
			d.logger.Debug("datum change replayed after registration",
				"datum", d.name(),
				"subscriber", s.id)
		}
		if d.probe != nil {
			d.probe.MissedChangeReplayed(d.name())
		}
		s.notify()
	}
}

// detach removes the subscription from the registry. Idempotent: the first
// call wins, later calls and detach-before-activate are no-ops. Once
// detached the subscriber is never notified again, even when a notification
// pass is mid-flight.
func (s *subscription[T]) detach() {
	if s.state == subDetached {
		return
	}
	wasActive := s.state == subActive
	s.state = subDetached

	if wasActive {
		s.d.detachSubscriber(s.id)
	}
}
