// Package datum provides shared observable value containers for Go
// applications: state that UI components and plain application code read and
// mutate through one object, with subscribers notified synchronously when the
// value semantically changes.
//
// This is the recommended import for most applications:
//
//	import "github.com/datum-dev/datum"
//
// Usage:
//
//	count := datum.NewInt(0)
//	cancel := count.Subscribe(func() { fmt.Println("count is now", count.Get()) })
//	count.Inc()
//	cancel()
//
// The subpackages remain importable on their own: pkg/datum holds the
// containers, pkg/host the component runtime, pkg/live the websocket server,
// pkg/feed the external writers and pkg/obs the instrumentation.
package datum

import (
	"context"
	"time"

	coredatum "github.com/datum-dev/datum/pkg/datum"
	"github.com/datum-dev/datum/pkg/derive"
	"github.com/datum-dev/datum/pkg/feed"
	"github.com/datum-dev/datum/pkg/host"
	"github.com/datum-dev/datum/pkg/live"
	"github.com/datum-dev/datum/pkg/obs"
)

// =============================================================================
// Containers (re-export from pkg/datum)
// =============================================================================

// Datum is a shared observable value container.
type Datum[T any] = coredatum.Datum[T]

// New creates a container holding initial.
//
// Example:
//
//	count := datum.New(0)
//	count.Set(1)
//	value := count.Get() // 1
func New[T any](initial T, opts ...Option) *Datum[T] {
	return coredatum.New(initial, opts...)
}

// Typed container aliases
type Bool = coredatum.Bool
type Int = coredatum.Int
type Float64 = coredatum.Float64
type Map[K comparable, V any] = coredatum.Map[K, V]
type Slice[T any] = coredatum.Slice[T]

// NewBool creates a boolean container with Toggle.
var NewBool = coredatum.NewBool

// NewInt creates an integer container with Inc, Dec and Add.
var NewInt = coredatum.NewInt

// NewFloat64 creates a float container with Add and Scale.
var NewFloat64 = coredatum.NewFloat64

// NewMap creates a map container with SetKey, DeleteKey and Len.
func NewMap[K comparable, V any](initial map[K]V, opts ...Option) *Map[K, V] {
	return coredatum.NewMap(initial, opts...)
}

// NewSlice creates a slice container with Append and Len.
func NewSlice[T any](initial []T, opts ...Option) *Slice[T] {
	return coredatum.NewSlice(initial, opts...)
}

// Option configures a container at creation.
type Option = coredatum.Option

// Shallow selects identity comparison instead of deep structural comparison.
var Shallow = coredatum.Shallow

// Trace enables diagnostic logging for the container under the given label.
var Trace = coredatum.Trace

// WithLogger sets the logger used for container trace output.
var WithLogger = coredatum.WithLogger

// WithProbe attaches an instrumentation probe to the container.
var WithProbe = coredatum.WithProbe

// =============================================================================
// Derived containers (re-export from pkg/derive)
// =============================================================================

// Computed creates a read-side container recomputed from src on every change.
//
// Example:
//
//	total, stop := datum.Computed(cart, func(c Cart) int { return len(c.Items) })
//	defer stop()
func Computed[S, T any](src *Datum[S], fn func(S) T, opts ...Option) (*Datum[T], func()) {
	return derive.Computed(src, fn, opts...)
}

// Join2 creates a container recomputed when either source changes.
func Join2[A, B, T any](a *Datum[A], b *Datum[B], fn func(A, B) T, opts ...Option) (*Datum[T], func()) {
	return derive.Join2(a, b, fn, opts...)
}

// =============================================================================
// Hosting (re-export from pkg/host and the core scope API)
// =============================================================================

// Component is the interface for renderable components.
type Component = host.Component

// Func wraps a render function as a Component.
type Func = host.Func

// Instance represents a mounted component.
type Instance = host.Instance

// Runtime hosts mounted instances and serializes rendering on one loop.
// Apps get one from NewApp; custom hosts build their own with pkg/host.
type Runtime = host.Runtime

// Patch is one rendered fragment emitted by a runtime.
type Patch = host.Patch

// ErrStopped is returned when mounting on a stopped runtime.
var ErrStopped = host.ErrStopped

// Scope gives hooks stable slots across renders. Only needed when building a
// custom host; pkg/host manages scopes for mounted components.
type Scope = coredatum.Scope

// NewScope creates an activation scope with the given invalidation callback.
var NewScope = coredatum.NewScope

// WithScope runs fn with s installed as the goroutine's current scope.
var WithScope = coredatum.WithScope

// =============================================================================
// Instrumentation (re-export from pkg/datum and pkg/obs)
// =============================================================================

// Probe receives container lifecycle events.
type Probe = coredatum.Probe

// SetOutcome classifies a completed write.
type SetOutcome = coredatum.SetOutcome

const (
	OutcomeChanged   = coredatum.OutcomeChanged
	OutcomeUnchanged = coredatum.OutcomeUnchanged
	OutcomeForced    = coredatum.OutcomeForced
)

// Metrics is a Probe exporting container activity to Prometheus.
type Metrics = obs.Metrics

// MetricsOption configures a Metrics probe.
type MetricsOption = obs.MetricsOption

// NewMetrics builds a Prometheus probe registered on the given registerer.
var NewMetrics = obs.NewMetrics

var (
	WithNamespace   = obs.WithNamespace
	WithSubsystem   = obs.WithSubsystem
	WithConstLabels = obs.WithConstLabels
	WithBuckets     = obs.WithBuckets
)

// Tracer wraps container writes and dispatched actions in OpenTelemetry spans.
type Tracer = obs.Tracer

// TracerOption configures a Tracer.
type TracerOption = obs.TracerOption

// NewTracer builds a Tracer resolved from the global provider.
var NewTracer = obs.NewTracer

var (
	WithTracerName     = obs.WithTracerName
	WithSpanAttributes = obs.WithSpanAttributes
)

// =============================================================================
// Feeds (re-export from pkg/feed)
// =============================================================================

// Ticker updates the container through fn at a fixed interval until stopped.
//
// Example:
//
//	stop := datum.Ticker(ctx, clock, time.Second, func(time.Time) time.Time {
//	    return time.Now()
//	})
//	defer stop()
func Ticker[T any](ctx context.Context, d *Datum[T], every time.Duration, fn func(T) T, opts ...TickerOption) (stop func()) {
	return feed.Ticker(ctx, d, every, fn, opts...)
}

// Watch decodes the YAML file into the container and reloads it on every
// write until ctx is done.
//
// Example:
//
//	err := datum.Watch(ctx, "state.yaml", state, datum.Debounce(250*time.Millisecond))
func Watch[T any](ctx context.Context, path string, d *Datum[T], opts ...WatchOption) error {
	return feed.Watch(ctx, path, d, opts...)
}

// TickerOption configures Ticker.
type TickerOption = feed.TickerOption

// WatchOption configures Watch.
type WatchOption = feed.WatchOption

// Immediate makes Ticker apply the first update on start rather than after
// the first interval.
var Immediate = feed.Immediate

// Debounce sets the quiet period between a file write and the reload.
func Debounce(d time.Duration) WatchOption {
	return feed.Debounce(d)
}

// =============================================================================
// Live server (re-export from pkg/live)
// =============================================================================

// Server pushes rendered fragments to browser sessions over websockets.
// Apps get one from NewApp; direct construction lives in pkg/live.
type Server = live.Server

// Session is one connected client.
type Session = live.Session

// Event is a client-to-server message naming a registered action.
type Event = live.Event
