// Package watcher implements the Watcher (C6): it observes the canonical
// store file and the Markdown tree, coalesces filesystem events behind a
// debounce timer, and serializes sync runs so at most one is ever
// in-flight.
package watcher

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the debounce window applied when none is configured.
const DefaultDebounce = 300 * time.Millisecond

// SyncFunc runs one sync pass. Its error, if any, is routed to OnError
// rather than propagated — a failed sync must not stop the watcher.
type SyncFunc func(event fsnotify.Event) error

// Watcher coalesces fsnotify events for the store file and the Markdown
// tree into serialized calls to a SyncFunc.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	sync      SyncFunc
	debounce  time.Duration
	onError   func(error)
	log       *slog.Logger

	mu           sync.Mutex
	timer        *time.Timer
	pendingEvent *fsnotify.Event
	isReady      bool
	isSyncing    bool

	doneCh chan struct{}
}

// Option configures a Watcher at construction time.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithOnError registers a callback invoked when a sync run or the
// underlying fsnotify stream errors. Without one, errors are only logged.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithLogger overrides the watcher's logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// New constructs a Watcher over the given roots (files or directories;
// fsnotify watches directories non-recursively, so callers add every
// directory that should be observed). sync is invoked, serialized and
// debounced, whenever an event settles.
func New(roots []string, sync SyncFunc, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		if err := fsw.Add(root); err != nil {
			fsw.Close() //nolint:errcheck
			return nil, err
		}
	}

	w := &Watcher{
		fsWatcher: fsw,
		sync:      sync,
		debounce:  DefaultDebounce,
		log:       slog.Default(),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.mu.Lock()
	w.isReady = true
	w.mu.Unlock()

	go w.loop()
	return w, nil
}

// loop is the single goroutine receiving raw fsnotify events and errors;
// it never itself runs a sync, it only (re)schedules the debounce timer.
func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.scheduleDebounce(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		case <-w.doneCh:
			return
		}
	}
}

// scheduleDebounce clears any outstanding timer and installs a new one
// that fires after the debounce window, per the event-handling contract:
// events within the window coalesce into exactly one sync, driven by the
// most recently observed event.
func (w *Watcher) scheduleDebounce(event fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	ev := event
	w.timer = time.AfterFunc(w.debounce, func() { w.onTimerFire(ev) })
}

// onTimerFire is the timer callback. It either defers to the in-flight
// sync (by stashing the event as pending) or runs a sync itself.
func (w *Watcher) onTimerFire(event fsnotify.Event) {
	w.mu.Lock()
	if w.isSyncing {
		w.pendingEvent = &event
		w.mu.Unlock()
		return
	}
	if !w.isReady {
		w.mu.Unlock()
		return
	}
	w.isSyncing = true
	w.mu.Unlock()

	w.runSyncGuarded(event)

	w.mu.Lock()
	w.isSyncing = false
	pending := w.pendingEvent
	w.pendingEvent = nil
	w.mu.Unlock()

	if pending != nil {
		w.scheduleDebounce(*pending)
	}
}

// runSyncGuarded invokes the user sync callback, recovering from panics
// and routing any error to onError without letting it escape — a broken
// sync run must never bring down the watcher goroutine.
func (w *Watcher) runSyncGuarded(event fsnotify.Event) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("sync callback panicked", "recovered", r)
		}
	}()
	if err := w.sync(event); err != nil {
		w.reportError(err)
	}
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	w.log.Error("watcher error", "err", err)
}

// Close shuts the watcher down. Safe to call multiple times. is_ready is
// cleared first and atomically, before any other teardown step, so a
// timer callback already waiting on the mutex observes it and returns
// without starting a new sync — closing in any other order is a race.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.isReady {
		w.mu.Unlock()
		return nil
	}
	w.isReady = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pendingEvent = nil
	w.mu.Unlock()

	close(w.doneCh)
	return w.fsWatcher.Close()
}

// IsReady reports whether the watcher is still accepting new sync runs;
// false after Close.
func (w *Watcher) IsReady() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isReady
}
