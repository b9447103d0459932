package feed_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/datum-dev/datum/pkg/datum"
	"github.com/datum-dev/datum/pkg/feed"
)

// A ticker applies its function on every interval until stopped.
func TestTickerUpdates(t *testing.T) {
	d := datum.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := feed.Ticker(ctx, d, 5*time.Millisecond, func(n int) int { return n + 1 })

	assert.Eventually(t, func() bool { return d.Get() >= 3 }, 2*time.Second, time.Millisecond)

	stop()
	time.Sleep(15 * time.Millisecond)
	settled := d.Get()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, settled, d.Get())
}

// The Immediate option fires the first tick right away instead of after the
// interval.
func TestTickerImmediate(t *testing.T) {
	d := datum.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := feed.Ticker(ctx, d, time.Hour, func(n int) int { return n + 1 }, feed.Immediate())
	defer stop()

	assert.Eventually(t, func() bool { return d.Get() == 1 }, 2*time.Second, time.Millisecond)
}

// Stopping twice is harmless.
func TestTickerStopIdempotent(t *testing.T) {
	d := datum.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := feed.Ticker(ctx, d, time.Hour, func(n int) int { return n + 1 })
	stop()
	stop()
}

// Cancelling the context stops the ticker without calling stop.
func TestTickerContextCancel(t *testing.T) {
	d := datum.New(0)
	ctx, cancel := context.WithCancel(context.Background())

	stop := feed.Ticker(ctx, d, 5*time.Millisecond, func(n int) int { return n + 1 })
	defer stop()

	assert.Eventually(t, func() bool { return d.Get() >= 2 }, 2*time.Second, time.Millisecond)

	cancel()
	time.Sleep(15 * time.Millisecond)
	settled := d.Get()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, settled, d.Get())
}

// A tick that maps the value to an equal one is absorbed by the container's
// equality policy: the ticker runs, subscribers hear nothing.
func TestTickerEqualValueAbsorbed(t *testing.T) {
	d := datum.New(7)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notified atomic.Int32
	cancelSub := d.Subscribe(func() { notified.Add(1) })
	defer cancelSub()

	var ticks atomic.Int32
	stop := feed.Ticker(ctx, d, 5*time.Millisecond, func(n int) int {
		ticks.Add(1)
		return n
	})
	defer stop()

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, int32(0), notified.Load())
	assert.Equal(t, uint64(0), d.ChangeCount())
}
