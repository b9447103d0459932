// Package derive builds read-mostly containers that track other containers.
//
// A derived container is an ordinary container kept in sync by a
// subscription on its source. It applies its own change detection, so a
// source change that maps to an equal derived value does not fan out to the
// derived container's subscribers. Derived containers never write back to
// their sources.
package derive

import "github.com/datum-dev/datum/pkg/datum"

// Computed returns a container holding fn applied to src's current value,
// recomputed synchronously on every accepted source change. Options
// configure the derived container itself (equality policy, tracing, probe).
//
// stop ends the tracking; the derived container keeps its last value and
// stays usable as a plain container afterwards. stop is idempotent.
//
//	fahrenheit, stop := derive.Computed(celsius, func(c float64) float64 {
//	    return c*9/5 + 32
//	})
//	defer stop()
func Computed[S, T any](src *datum.Datum[S], fn func(S) T, opts ...datum.Option) (*datum.Datum[T], func()) {
	out := datum.New(fn(src.Get()), opts...)
	cancel := src.Subscribe(func() {
		out.Set(fn(src.Get()))
	})
	return out, cancel
}

// Join2 returns a container combining two sources, recomputed when either
// accepts a change. stop detaches from both sources.
func Join2[A, B, T any](a *datum.Datum[A], b *datum.Datum[B], fn func(A, B) T, opts ...datum.Option) (*datum.Datum[T], func()) {
	out := datum.New(fn(a.Get(), b.Get()), opts...)
	recompute := func() {
		out.Set(fn(a.Get(), b.Get()))
	}
	cancelA := a.Subscribe(recompute)
	cancelB := b.Subscribe(recompute)
	return out, func() {
		cancelA()
		cancelB()
	}
}
