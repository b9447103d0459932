// Package datum provides shared observable value containers.
//
// A Datum holds one value that any code can read or replace: component
// render functions, timers, network callbacks, imperative business logic.
// When a write semantically changes the value, every subscribed component is
// notified synchronously and asks its host to re-render it. A write that
// compares equal under the container's policy does nothing at all.
//
// # Core Types
//
// Datum[T] is the container:
//
//	count := datum.New(0)
//	value := count.Get()  // Plain read, never subscribes
//	count.Set(5)          // Notifies subscribers if the value changed
//	count.Update(func(n int) int { return n + 1 })
//	count.Force(5)        // Skips comparison, always notifies
//
// Inside a component render, Use returns the current value and the shared
// setter while subscribing the component for the instance's lifetime:
//
//	func Counter(count *datum.Datum[int]) host.Component {
//	    return host.Func(func() string {
//	        n, setCount := count.Use()
//	        _ = setCount
//	        return fmt.Sprintf("count: %d", n)
//	    })
//	}
//
// Outside components, Subscribe registers a plain callback and returns an
// idempotent cancel.
//
// # Equality
//
// The default policy is deep structural comparison: scalars by ==, slices
// element-wise, maps key-wise. Shallow() switches to identity comparison,
// where two separately allocated composites are always different. Force and
// ForceUpdate bypass comparison entirely, which is the only way to publish
// an in-place mutation of a composite value. WithEquals replaces the policy
// with a custom comparison.
//
// # Lifecycle
//
// Hosts integrate through Scope: wrap renders in WithScope, run activations
// after commit, dispose the scope on unmount. A subscription only enters the
// registry when its instance commits; if a change lands between the first
// render and that commit, activation replays the missed notification so the
// component never shows a stale value. Detachment is exactly-once and a
// detached subscriber is never notified again, even mid-pass.
//
// # Concurrency
//
// Notification is synchronous within the writing call, and callbacks may
// re-enter the container: the pass iterates a snapshot while detachments hit
// the live registry. Values and counters sit behind a small mutex so feeds
// on other goroutines can write safely; there is no internal scheduling, no
// batching and no asynchrony.
package datum
