package datum

import "time"

// SetOutcome classifies a set attempt for instrumentation.
type SetOutcome string

const (
	// OutcomeChanged means the comparison saw a different value and the
	// change was applied.
	OutcomeChanged SetOutcome = "changed"

	// OutcomeUnchanged means the comparison saw an equal value and the set
	// was a no-op.
	OutcomeUnchanged SetOutcome = "unchanged"

	// OutcomeForced means comparison was bypassed and the change applied
	// unconditionally.
	OutcomeForced SetOutcome = "forced"
)

// Probe receives container lifecycle events for instrumentation. All methods
// are invoked synchronously on the calling goroutine; implementations must be
// cheap and must not call back into the container. A nil probe disables
// instrumentation entirely.
//
// Probes observe, they do not participate: a probe cannot veto a change or
// alter notification order.
type Probe interface {
	// ContainerCreated fires once per container at construction.
	ContainerCreated(name string)

	// SetRecorded fires after every set attempt. subscribers is the size of
	// the notified snapshot (zero for unchanged sets) and elapsed covers the
	// notification pass.
	SetRecorded(name string, outcome SetOutcome, subscribers int, elapsed time.Duration)

	// SubscriberRegistered fires when a subscription enters the registry.
	// active is the registry size after registration.
	SubscriberRegistered(name string, active int)

	// SubscriberDetached fires when a subscription leaves the registry.
	// active is the registry size after removal.
	SubscriberDetached(name string, active int)

	// MissedChangeReplayed fires when a subscription activates after a change
	// landed inside its registration window and replays the notification to
	// its owner.
	MissedChangeReplayed(name string)
}

// Name returns the identifier used in trace output and probe events: the
// configured trace label, or a generated "datum-N" fallback.
func (d *Datum[T]) Name() string {
	return d.name()
}

// name returns the identifier used in trace output and probe events.
// Falls back to the container ID when no trace label was configured.
func (d *Datum[T]) name() string {
	if d.label != "" {
		return d.label
	}
	return d.fallbackName
}

// traced reports whether trace logging is enabled for this container.
func (d *Datum[T]) traced() bool {
	return d.label != ""
}
