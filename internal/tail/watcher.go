// Package tail follows preview controller events for line-oriented output.
package tail

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tessro/prelisten/internal/preview"
)

// Source is anything that publishes preview events.
type Source interface {
	Subscribe(fn func(preview.Event)) (unsubscribe func())
}

// Watcher relays events from a Source onto a channel.
type Watcher struct {
	source    Source
	positions bool
	stale     bool

	events  chan preview.Event
	done    chan struct{}
	quit    chan struct{}
	stop    sync.Once
	dropped atomic.Int64
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPositions relays cursor-only updates.
func WithPositions(enabled bool) WatcherOption {
	return func(w *Watcher) {
		w.positions = enabled
	}
}

// WithStale relays dropped-continuation traces.
func WithStale(enabled bool) WatcherOption {
	return func(w *Watcher) {
		w.stale = enabled
	}
}

// WithBuffer sets the channel capacity.
func WithBuffer(n int) WatcherOption {
	return func(w *Watcher) {
		if n > 0 {
			w.events = make(chan preview.Event, n)
		}
	}
}

// NewWatcher creates a watcher for source.
func NewWatcher(source Source, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source: source,
		events: make(chan preview.Event, 64),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events returns the channel of preview events. It is closed when Start
// returns.
func (w *Watcher) Events() <-chan preview.Event {
	return w.events
}

// Dropped returns how many position or stale events were discarded because
// the channel was full. Other events wait for room instead.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

// Start relays events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	unsubscribe := w.source.Subscribe(w.relay)
	defer close(w.events)
	// Unsubscribing waits for any in-flight delivery, so closing afterwards is safe.
	defer unsubscribe()
	// Unblocks a relay waiting for room so unsubscribe can finish.
	defer close(w.quit)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return nil
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stop.Do(func() { close(w.done) })
}

func (w *Watcher) relay(e preview.Event) {
	if !w.wants(e) {
		return
	}
	switch e.Type {
	case preview.EventPosition, preview.EventStale:
		select {
		case w.events <- e:
		default:
			// Drop event if channel is full
			w.dropped.Add(1)
		}
	default:
		select {
		case w.events <- e:
		case <-w.quit:
		}
	}
}

func (w *Watcher) wants(e preview.Event) bool {
	switch e.Type {
	case preview.EventPosition:
		return w.positions
	case preview.EventStale:
		return w.stale
	default:
		return true
	}
}
