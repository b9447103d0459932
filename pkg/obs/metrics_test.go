package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datum-dev/datum/pkg/datum"
	"github.com/datum-dev/datum/pkg/obs"
)

// findMetric returns the sample in family whose labels include all of want,
// or nil when no sample matches.
func findMetric(t *testing.T, reg *prometheus.Registry, family string, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			matched := true
			for k, v := range want {
				if labels[k] != v {
					matched = false
					break
				}
			}
			if matched {
				return m
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, family string, labels map[string]string) float64 {
	t.Helper()
	m := findMetric(t, reg, family, labels)
	if m == nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, family string, labels map[string]string) float64 {
	t.Helper()
	m := findMetric(t, reg, family, labels)
	if m == nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, reg *prometheus.Registry, family string, labels map[string]string) uint64 {
	t.Helper()
	m := findMetric(t, reg, family, labels)
	if m == nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

// Every set attempt lands in datum_sets_total under its outcome, and
// container creation is counted.
func TestMetricsSetOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	d := datum.New(0, datum.Trace("obs.counter"), datum.WithProbe(m))
	d.Set(1) // changed
	d.Set(1) // unchanged
	d.Force(1)

	name := map[string]string{"datum": "obs.counter"}
	assert.Equal(t, 1.0, counterValue(t, reg, "datum_containers_created_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "datum_sets_total", map[string]string{"datum": "obs.counter", "outcome": "changed"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "datum_sets_total", map[string]string{"datum": "obs.counter", "outcome": "unchanged"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "datum_sets_total", map[string]string{"datum": "obs.counter", "outcome": "forced"}))
	assert.Equal(t, uint64(2), histogramCount(t, reg, "datum_notify_duration_seconds", name))
}

// The subscriber gauge follows registrations and detachments.
func TestMetricsSubscriberGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	d := datum.New(0, datum.Trace("obs.gauge"), datum.WithProbe(m))
	name := map[string]string{"datum": "obs.gauge"}

	cancelA := d.Subscribe(func() {})
	cancelB := d.Subscribe(func() {})
	assert.Equal(t, 2.0, gaugeValue(t, reg, "datum_subscribers", name))

	cancelA()
	assert.Equal(t, 1.0, gaugeValue(t, reg, "datum_subscribers", name))

	cancelB()
	assert.Equal(t, 0.0, gaugeValue(t, reg, "datum_subscribers", name))
}

// Notified callbacks accumulate per pass; the histogram records one sample
// per accepted change.
func TestMetricsNotifications(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	d := datum.New(0, datum.Trace("obs.fanout"), datum.WithProbe(m))
	cancelA := d.Subscribe(func() {})
	defer cancelA()
	cancelB := d.Subscribe(func() {})
	defer cancelB()

	d.Set(1)
	d.Set(2)
	d.Set(3)

	name := map[string]string{"datum": "obs.fanout"}
	assert.Equal(t, 6.0, counterValue(t, reg, "datum_notifications_total", name))
	assert.Equal(t, uint64(3), histogramCount(t, reg, "datum_notify_duration_seconds", name))
}

// A subscription activating after a change landed in its registration
// window counts one replay.
func TestMetricsReplay(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	d := datum.New("A", datum.Trace("obs.replay"), datum.WithProbe(m))

	scope := datum.NewScope(nil, func() {})
	defer scope.Dispose()

	scope.BeginRender()
	datum.WithScope(scope, func() {
		d.Use()
	})
	d.Set("B") // lands before the hook's subscription activates
	scope.RunActivations()

	name := map[string]string{"datum": "obs.replay"}
	assert.Equal(t, 1.0, counterValue(t, reg, "datum_replays_total", name))
}

// Namespace, subsystem and const labels flow into the exported families.
func TestMetricsNamespaceOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg,
		obs.WithNamespace("app"),
		obs.WithSubsystem("state"),
		obs.WithConstLabels(prometheus.Labels{"svc": "checkout"}),
	)

	d := datum.New(0, datum.Trace("obs.named"), datum.WithProbe(m))
	d.Set(1)

	got := counterValue(t, reg, "app_state_sets_total", map[string]string{
		"datum":   "obs.named",
		"outcome": "changed",
		"svc":     "checkout",
	})
	assert.Equal(t, 1.0, got)
}
