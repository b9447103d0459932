// Package obs exports container activity to Prometheus and OpenTelemetry.
// The instrumentation observes, it never participates: nothing here can veto
// a change or reorder a notification pass.
package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/datum-dev/datum/pkg/datum"
)

// MetricsConfig configures the Prometheus probe.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "datum").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notification duration.
	// Default: prometheus.DefBuckets
	Buckets []float64
}

// MetricsOption configures the Prometheus probe.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "datum",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics is a datum.Probe that exports container activity as Prometheus
// metrics. Attach it per container with datum.WithProbe.
//
// Metrics collected:
//   - datum_containers_created_total: Counter of containers created
//   - datum_sets_total: Counter of set attempts by container and outcome
//   - datum_notifications_total: Counter of subscriber callbacks invoked
//   - datum_subscribers: Gauge of currently registered subscribers
//   - datum_notify_duration_seconds: Histogram of notification pass duration
//   - datum_replays_total: Counter of missed-change replays
type Metrics struct {
	containersCreated prometheus.Counter
	sets              *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	subscribers       *prometheus.GaugeVec
	notifyDuration    *prometheus.HistogramVec
	replays           *prometheus.CounterVec
}

var _ datum.Probe = (*Metrics)(nil)

// NewMetrics creates the probe and registers its collectors with registry.
// A nil registry uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer, opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		containersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "containers_created_total",
			Help:        "Total number of containers created",
			ConstLabels: config.ConstLabels,
		}),

		sets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sets_total",
			Help:        "Total number of set attempts by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"datum", "outcome"}),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of subscriber callbacks invoked",
			ConstLabels: config.ConstLabels,
		}, []string{"datum"}),

		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Number of currently registered subscribers",
			ConstLabels: config.ConstLabels,
		}, []string{"datum"}),

		notifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Notification pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"datum"}),

		replays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "replays_total",
			Help:        "Total number of missed-change replays delivered to late subscribers",
			ConstLabels: config.ConstLabels,
		}, []string{"datum"}),
	}
}

// ContainerCreated counts the new container.
func (m *Metrics) ContainerCreated(name string) {
	m.containersCreated.Inc()
}

// SetRecorded counts the attempt under its outcome. Attempts that notified
// also add to the callback counter and the duration histogram; unchanged
// sets have no notification pass to measure.
func (m *Metrics) SetRecorded(name string, outcome datum.SetOutcome, subscribers int, elapsed time.Duration) {
	m.sets.WithLabelValues(name, string(outcome)).Inc()
	if outcome == datum.OutcomeUnchanged {
		return
	}
	m.notifications.WithLabelValues(name).Add(float64(subscribers))
	m.notifyDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// SubscriberRegistered tracks the registry size.
func (m *Metrics) SubscriberRegistered(name string, active int) {
	m.subscribers.WithLabelValues(name).Set(float64(active))
}

// SubscriberDetached tracks the registry size.
func (m *Metrics) SubscriberDetached(name string, active int) {
	m.subscribers.WithLabelValues(name).Set(float64(active))
}

// MissedChangeReplayed counts the replay.
func (m *Metrics) MissedChangeReplayed(name string) {
	m.replays.WithLabelValues(name).Inc()
}
