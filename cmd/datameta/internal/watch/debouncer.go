// Package watch re-runs the metadata update when data files change.
package watch

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// MaxPendingChanges bounds the pending set. Reaching it flushes
// immediately instead of waiting for the window.
const MaxPendingChanges = 1000

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Change is one coalesced file change.
type Change struct {
	Path string
	Type ChangeType
}

// Debouncer coalesces bursts of file events into one batch. Events for
// the same path within the window collapse to the latest change type.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]ChangeType
	timer   *time.Timer
	window  time.Duration
	onFlush func(changes []Change)
	stopped bool
}

// NewDebouncer creates a debouncer. onFlush receives the batch, sorted by
// path, once window passes without new events.
func NewDebouncer(window time.Duration, onFlush func(changes []Change)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]ChangeType),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change and restarts the window.
func (d *Debouncer) Add(path string, change ChangeType) {
	d.mu.Lock()

	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.pending[path] = change

	if len(d.pending) >= MaxPendingChanges {
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		batch := d.takeLocked()
		d.mu.Unlock()
		d.deliver(batch)
		return
	}

	// A timer that already fired may still run flush; flush tolerates an
	// empty pending set.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
	d.mu.Unlock()
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	batch := d.takeLocked()
	d.mu.Unlock()
	d.deliver(batch)
}

// FlushNow delivers pending changes without waiting for the timer.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.stopped {
		d.mu.Unlock()
		return
	}
	batch := d.takeLocked()
	d.mu.Unlock()
	d.deliver(batch)
}

// Stop stops the debouncer. Pending changes are delivered once more.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	batch := d.takeLocked()
	d.mu.Unlock()
	d.deliver(batch)
}

// PendingCount returns the number of paths waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// takeLocked empties the pending set. Caller must hold d.mu.
func (d *Debouncer) takeLocked() []Change {
	if len(d.pending) == 0 {
		return nil
	}
	batch := make([]Change, 0, len(d.pending))
	for p, c := range d.pending {
		batch = append(batch, Change{Path: p, Type: c})
	}
	d.pending = make(map[string]ChangeType)
	slices.SortFunc(batch, func(a, b Change) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return batch
}

// deliver runs the callback outside the lock.
func (d *Debouncer) deliver(batch []Change) {
	if len(batch) > 0 && d.onFlush != nil {
		d.onFlush(batch)
	}
}
