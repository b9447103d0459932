package feed

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/datum-dev/datum/internal/errors"
	"github.com/datum-dev/datum/pkg/datum"
)

const defaultDebounce = 100 * time.Millisecond

// Watch decodes the YAML document at path into d and keeps it in sync:
// every write to the file is decoded and Set on the container, debounced so
// editors that save in bursts produce one update. The watch runs until ctx
// is cancelled.
//
// The parent directory is watched rather than the file itself, so deleting
// and re-creating the file resumes updates. A missing file at start is not
// an error; the first write populates the container. Documents that fail to
// decode are logged and skipped, leaving the previous value in place.
func Watch[T any](ctx context.Context, path string, d *datum.Datum[T], opts ...WatchOption) error {
	cfg := watchConfig{debounce: defaultDebounce, logger: slog.Default()}
	for _, opt := range opts {
		opt.applyWatch(&cfg)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("E060").Wrap(err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.New("E060").WithDetail("Cannot watch directory " + dir).Wrap(err)
	}

	// Initial load. A file that does not exist yet just means the feed
	// starts at the container's current value.
	if _, err := os.Stat(path); err == nil {
		loadInto(path, d, cfg.logger)
	}

	go func() {
		defer watcher.Close()

		target := filepath.Clean(path)
		var reload <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				switch {
				case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create):
					reload = time.After(cfg.debounce)
				case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
					cfg.logger.Debug("feed file removed, waiting for re-create", "path", path)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				cfg.logger.Warn("feed watch error", "path", path, "err", err)

			case <-reload:
				reload = nil
				loadInto(path, d, cfg.logger)
			}
		}
	}()

	return nil
}

// loadInto reads and decodes the file, then Sets the result on the
// container. Read and decode failures keep the previous value.
func loadInto[T any](path string, d *datum.Datum[T], logger *slog.Logger) {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("feed file unreadable, keeping previous value", "path", path, "err", err)
		return
	}

	var next T
	if err := yaml.Unmarshal(raw, &next); err != nil {
		logger.Warn("feed decode failed, keeping previous value",
			"path", path, "err", errors.New("E061").Wrap(err))
		return
	}

	d.Set(next)
}

// watchConfig holds configuration from WatchOptions.
type watchConfig struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WatchOption is an option for configuring Watch.
type WatchOption interface {
	isWatchOption()
	applyWatch(cfg *watchConfig)
}

type watchOptionFunc func(*watchConfig)

func (f watchOptionFunc) isWatchOption()              {}
func (f watchOptionFunc) applyWatch(cfg *watchConfig) { f(cfg) }

// Debounce sets the settle delay between a write event and the reload.
// Default: 100ms.
func Debounce(d time.Duration) WatchOption {
	return watchOptionFunc(func(cfg *watchConfig) {
		if d > 0 {
			cfg.debounce = d
		}
	})
}

// WithLogger sets the logger for watch diagnostics. If nil, slog.Default()
// is used.
func WithLogger(logger *slog.Logger) WatchOption {
	return watchOptionFunc(func(cfg *watchConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}
