// Package debounce collapses bursts of triggers into one delayed action.
package debounce

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending action. Each Trigger replaces the
// pending action and restarts the delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	pending bool
}

// New creates a debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the configured delay.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn to run once the delay passes without another Trigger
// or Cancel. fn runs on a timer goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a timer that fired while being replaced must not run
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending action. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.pending = false
	return true
}

// Pending reports whether an action is waiting for its deadline.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
