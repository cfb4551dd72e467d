package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	baseInterval  = 1 * time.Second
	maxInterval   = 60 * time.Second
	debounceDelay = 200 * time.Millisecond
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// ReloadFunc is called when a watched file changed. A returned error keeps the
// previous snapshot so the change is retried on the next poll.
type ReloadFunc func(ctx context.Context) error

// Watcher watches a set of files (a schema file, or a snapshot database and
// its WAL) and calls a ReloadFunc when any of them changes. File system
// events trigger a debounced check; a polling timer backs them up where
// notifications are unavailable.
type Watcher struct {
	paths    []string
	reloadFn ReloadFunc

	base time.Duration
	max  time.Duration

	snapshot map[string]fileSnapshot
	interval time.Duration
}

// New creates a Watcher for paths.
func New(paths []string, reloadFn ReloadFunc) *Watcher {
	return &Watcher{
		paths:    paths,
		reloadFn: reloadFn,
		base:     baseInterval,
		max:      maxInterval,
	}
}

// Run blocks until ctx is cancelled. The first poll captures a baseline; the
// poll interval doubles while nothing changes and drops back to the base
// after a change.
func (w *Watcher) Run(ctx context.Context) {
	w.interval = w.base
	w.poll(ctx)

	var events chan fsnotify.Event
	var errs chan error
	if fsw := w.notifier(); fsw != nil {
		defer fsw.Close()
		events, errs = fsw.Events, fsw.Errors
	}

	timer := time.NewTimer(w.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if w.watches(ev.Name) {
				timer.Reset(debounceDelay)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher.notify", "err", err)
		case <-timer.C:
			w.poll(ctx)
			timer.Reset(w.interval)
		}
	}
}

// notifier watches the parent directories of the paths, since editors and
// SQLite replace or create files rather than writing in place. It returns
// nil when notifications are unavailable.
func (w *Watcher) notifier() *fsnotify.Watcher {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("watcher.notify.unavailable", "err", err)
		return nil
	}
	added := map[string]bool{}
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if added[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			slog.Warn("watcher.notify.add", "dir", dir, "err", err)
			continue
		}
		added[dir] = true
	}
	if len(added) == 0 {
		fsw.Close()
		return nil
	}
	return fsw
}

// watches reports whether name is one of the watched paths.
func (w *Watcher) watches(name string) bool {
	name = filepath.Clean(name)
	for _, p := range w.paths {
		if filepath.Clean(p) == name {
			return true
		}
	}
	return false
}

// poll captures the current snapshot and compares it with the previous one.
func (w *Watcher) poll(ctx context.Context) {
	snap := captureSnapshot(w.paths)

	if w.snapshot == nil {
		slog.Debug("watcher.baseline", "files", len(snap))
		w.snapshot = snap
		return
	}

	if snapshotsEqual(w.snapshot, snap) {
		w.interval = backoff(w.interval, w.max)
		return
	}

	slog.Info("watcher.changed", "files", len(snap))
	w.interval = w.base
	if err := w.reloadFn(ctx); err != nil {
		slog.Warn("watcher.reload", "err", err)
		return
	}
	w.snapshot = snap
}

// captureSnapshot records mtime+size for each path that exists.
func captureSnapshot(paths []string) map[string]fileSnapshot {
	snap := make(map[string]fileSnapshot, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		snap[p] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap
}

// snapshotsEqual returns true if two snapshots have identical files with same mtime+size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// backoff doubles the interval, capped at limit.
func backoff(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit {
		return limit
	}
	return next
}
