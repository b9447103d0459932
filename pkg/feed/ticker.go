// Package feed connects containers to external writers: periodic updaters
// and files on disk. Feeds go through the same public setters as everyone
// else, so the container's equality policy decides what subscribers hear.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/datum-dev/datum/pkg/datum"
)

// Ticker applies fn to d's value every interval until ctx is cancelled or
// the returned stop function is called. Each tick goes through Update, so a
// tick that maps the value to an equal one notifies nobody.
//
//	stop := feed.Ticker(ctx, clock, time.Second, func(t time.Time) time.Time {
//	    return time.Now()
//	})
//	defer stop()
func Ticker[T any](ctx context.Context, d *datum.Datum[T], every time.Duration, fn func(T) T, opts ...TickerOption) (stop func()) {
	var cfg tickerConfig
	for _, opt := range opts {
		opt.applyTicker(&cfg)
	}

	done := make(chan struct{})

	go func() {
		if cfg.immediate {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			default:
				d.Update(fn)
			}
		}

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.Update(fn)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// tickerConfig holds configuration from TickerOptions.
type tickerConfig struct {
	immediate bool
}

// TickerOption is an option for configuring Ticker.
type TickerOption interface {
	isTickerOption()
	applyTicker(cfg *tickerConfig)
}

type tickerOptionFunc func(*tickerConfig)

func (f tickerOptionFunc) isTickerOption()               {}
func (f tickerOptionFunc) applyTicker(cfg *tickerConfig) { f(cfg) }

// Immediate causes the first tick to occur immediately instead of after the
// interval.
func Immediate() TickerOption {
	return tickerOptionFunc(func(cfg *tickerConfig) {
		cfg.immediate = true
	})
}
