package form

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid Schedule calls into a single execution after a
// quiet period. Each Schedule supersedes the previous pending call and
// returns a cancel handle for the new one.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	seq    int
	timer  *time.Timer
	closed bool
}

// NewDebouncer creates a debouncer with the given quiet period. A zero or
// negative delay executes synchronously, which keeps tests deterministic.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arranges fn to run after the quiet period, replacing any pending
// call. The returned cancel stops this specific call; cancelling is a no-op
// once the call has fired or been superseded.
func (d *Debouncer) Schedule(fn func()) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || fn == nil {
		return func() {}
	}

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if d.delay <= 0 {
		d.mu.Unlock()
		fn()
		d.mu.Lock()
		return func() {}
	}

	d.seq++
	id := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.closed || d.seq != id {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.seq == id && d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
	}
}

// Close cancels any pending call and rejects future ones.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
