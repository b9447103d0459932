package datum

import "log/slog"

// Option is a functional option for configuring containers.
type Option func(*options)

// options holds configuration for container behavior.
type options struct {
	// shallow selects identity comparison instead of structural comparison.
	shallow bool

	// label enables trace logging keyed by this name.
	// Empty means tracing is disabled.
	label string

	// logger receives trace output. If nil, slog.Default() is used.
	logger *slog.Logger

	// probe receives lifecycle events for instrumentation.
	probe Probe
}

// Shallow selects the identity equality policy for the container: composite
// values compare by reference, primitives by value. The default policy is
// deep structural comparison.
//
// Example:
//
//	items := datum.New([]int{1, 2}, datum.Shallow())
//	items.Set([]int{1, 2}) // distinct backing array, subscribers notified
func Shallow() Option {
	return func(o *options) {
		o.shallow = true
	}
}

// Trace enables diagnostic logging for the container under the given label.
// Tracing is best-effort and never affects behavior.
//
// Example:
//
//	count := datum.New(0, datum.Trace("cart.count"))
func Trace(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithLogger sets the logger used for trace output.
// Only consulted when Trace is also set. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProbe attaches an instrumentation probe to the container.
// Probes observe creation, set attempts, registration and detachment.
func WithProbe(p Probe) Option {
	return func(o *options) {
		o.probe = p
	}
}

// applyOptions applies the given options and returns the resulting config.
func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
