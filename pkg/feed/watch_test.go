package feed_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datum-dev/datum/internal/errors"
	"github.com/datum-dev/datum/pkg/datum"
	"github.com/datum-dev/datum/pkg/feed"
)

type appState struct {
	Greeting string `yaml:"greeting"`
	Count    int    `yaml:"count"`
}

func writeState(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// A file that exists at start is decoded before Watch returns.
func TestWatchInitialLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	writeState(t, path, "greeting: hello\ncount: 3\n")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.Watch(ctx, path, d, feed.WithLogger(quietLogger())))
	assert.Equal(t, appState{Greeting: "hello", Count: 3}, d.Get())
}

// Watching a path with no file yet is not an error; the first write
// populates the container.
func TestWatchMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.Watch(ctx, path, d, feed.Debounce(10*time.Millisecond), feed.WithLogger(quietLogger())))
	assert.Equal(t, appState{}, d.Get())

	writeState(t, path, "greeting: late\ncount: 1\n")
	assert.Eventually(t, func() bool {
		return d.Get() == appState{Greeting: "late", Count: 1}
	}, 2*time.Second, 5*time.Millisecond)
}

// Writing the file updates the container once the debounce settles, and
// subscribers are notified.
func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	writeState(t, path, "greeting: hello\ncount: 1\n")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.Watch(ctx, path, d, feed.Debounce(10*time.Millisecond), feed.WithLogger(quietLogger())))

	var notified atomic.Int32
	cancelSub := d.Subscribe(func() { notified.Add(1) })
	defer cancelSub()

	writeState(t, path, "greeting: hej\ncount: 2\n")
	assert.Eventually(t, func() bool {
		return d.Get() == appState{Greeting: "hej", Count: 2}
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, notified.Load(), int32(1))
}

// Rewriting the file with identical content is absorbed by deep equality:
// the reload happens, subscribers hear nothing.
func TestWatchIdenticalWriteNotifiesNobody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	writeState(t, path, "greeting: hello\ncount: 1\n")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.Watch(ctx, path, d, feed.Debounce(10*time.Millisecond), feed.WithLogger(quietLogger())))
	before := d.ChangeCount()

	var notified atomic.Int32
	cancelSub := d.Subscribe(func() { notified.Add(1) })
	defer cancelSub()

	writeState(t, path, "greeting: hello\ncount: 1\n")
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int32(0), notified.Load())
	assert.Equal(t, before, d.ChangeCount())
}

// A document that fails to decode leaves the previous value in place; the
// next good write recovers.
func TestWatchDecodeErrorKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	writeState(t, path, "greeting: hello\ncount: 1\n")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.Watch(ctx, path, d, feed.Debounce(10*time.Millisecond), feed.WithLogger(quietLogger())))

	writeState(t, path, "greeting: [unterminated\n")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, appState{Greeting: "hello", Count: 1}, d.Get())

	writeState(t, path, "greeting: recovered\ncount: 2\n")
	assert.Eventually(t, func() bool {
		return d.Get() == appState{Greeting: "recovered", Count: 2}
	}, 2*time.Second, 5*time.Millisecond)
}

// Deleting the file keeps the watch alive; re-creating it resumes updates.
func TestWatchRemoveThenRecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	writeState(t, path, "greeting: hello\ncount: 1\n")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.Watch(ctx, path, d, feed.Debounce(10*time.Millisecond), feed.WithLogger(quietLogger())))

	require.NoError(t, os.Remove(path))
	time.Sleep(30 * time.Millisecond)

	writeState(t, path, "greeting: back\ncount: 2\n")
	assert.Eventually(t, func() bool {
		return d.Get() == appState{Greeting: "back", Count: 2}
	}, 2*time.Second, 5*time.Millisecond)
}

// Events for sibling files in the same directory do not touch the container.
func TestWatchSiblingFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	writeState(t, path, "greeting: hello\ncount: 1\n")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.Watch(ctx, path, d, feed.Debounce(10*time.Millisecond), feed.WithLogger(quietLogger())))
	before := d.ChangeCount()

	writeState(t, filepath.Join(dir, "other.yaml"), "greeting: noise\ncount: 99\n")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, before, d.ChangeCount())
	assert.Equal(t, appState{Greeting: "hello", Count: 1}, d.Get())
}

// A directory that cannot be watched reports a structured setup error.
func TestWatchBadDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "state.yaml")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := feed.Watch(ctx, path, d, feed.WithLogger(quietLogger()))
	require.Error(t, err)

	var de *errors.DatumError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "E060", de.Code)
}

// After the context is cancelled, writes no longer reach the container.
func TestWatchStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	writeState(t, path, "greeting: hello\ncount: 1\n")

	d := datum.New(appState{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, feed.Watch(ctx, path, d, feed.Debounce(10*time.Millisecond), feed.WithLogger(quietLogger())))

	cancel()
	time.Sleep(30 * time.Millisecond)

	writeState(t, path, "greeting: ignored\ncount: 2\n")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, appState{Greeting: "hello", Count: 1}, d.Get())
}
