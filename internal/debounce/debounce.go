// Package debounce coalesces bursts of calls per key into one delayed call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the latest function scheduled for a key once the key has
// been quiet for the delay. Scheduling again before then replaces the
// pending function.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]*task
	stopped bool
}

type task struct {
	timer *time.Timer
	seq   uint64
}

// New creates a debouncer with the given quiet period
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*task),
	}
}

// Schedule arranges for fn to run after the delay unless key is scheduled
// or cancelled again first. fn runs on its own goroutine.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.pending[key]; ok {
		t.timer.Stop()
	}

	d.seq++
	t := &task{seq: d.seq}
	t.timer = time.AfterFunc(d.delay, func() { d.fire(key, t.seq, fn) })
	d.pending[key] = t
}

// fire runs fn if it is still the pending task for key. A timer that already
// fired when Stop was called is caught by the sequence check.
func (d *Debouncer) fire(key string, seq uint64, fn func()) {
	d.mu.Lock()
	t, ok := d.pending[key]
	if !ok || t.seq != seq || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	fn()
}

// Cancel drops the pending task for key, if any
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[key]; ok {
		t.timer.Stop()
		delete(d.pending, key)
	}
}

// Pending reports whether a task is waiting for key
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop cancels every pending task and rejects new ones
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, t := range d.pending {
		t.timer.Stop()
		delete(d.pending, key)
	}
}
