package obs_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	"github.com/datum-dev/datum/pkg/datum"
	"github.com/datum-dev/datum/pkg/host"
	"github.com/datum-dev/datum/pkg/obs"
)

// The span helpers run against the global tracer provider; without one
// configured they are no-ops, so these tests pin down the wrapping
// behavior, not span contents.

// TraceSet executes the write and leaves container semantics untouched.
func TestTraceSetRunsWrite(t *testing.T) {
	tr := obs.NewTracer()
	d := datum.New(0)

	tr.TraceSet(context.Background(), d, func() {
		d.Set(5)
	})

	assert.Equal(t, 5, d.Get())
	assert.Equal(t, uint64(1), d.ChangeCount())
}

// A panic inside the traced write reaches the caller.
func TestTraceSetPanicPropagates(t *testing.T) {
	tr := obs.NewTracer()
	d := datum.New(0)

	assert.PanicsWithValue(t, "boom", func() {
		tr.TraceSet(context.Background(), d, func() {
			panic("boom")
		})
	})
}

// The wrapped dispatch callback runs only when invoked.
func TestTraceDispatchWrapsCallback(t *testing.T) {
	tr := obs.NewTracer()

	called := false
	wrapped := tr.TraceDispatch(context.Background(), "increment", func() {
		called = true
	})
	assert.False(t, called)

	wrapped()
	assert.True(t, called)
}

// A panic in the callback escapes the wrapper so the runtime's recovery can
// log it.
func TestTraceDispatchPanicPropagates(t *testing.T) {
	tr := obs.NewTracer()

	wrapped := tr.TraceDispatch(context.Background(), "explode", func() {
		panic("boom")
	})
	assert.PanicsWithValue(t, "boom", wrapped)
}

// The wrapper composes with the runtime's dispatch path end to end.
func TestTraceDispatchThroughRuntime(t *testing.T) {
	cfg := host.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := host.NewRuntime(cfg)
	go rt.Run()
	defer rt.Stop()

	tr := obs.NewTracer(
		obs.WithTracerName("obs-test"),
		obs.WithSpanAttributes(attribute.String("svc", "checkout")),
	)
	d := datum.New(0)

	wrapped := tr.TraceDispatch(context.Background(), "increment", func() {
		d.Update(func(n int) int { return n + 1 })
	})
	rt.Dispatch(wrapped)

	assert.Eventually(t, func() bool { return d.Get() == 1 }, 2*time.Second, time.Millisecond)
}
