package engine

import (
	"time"

	"github.com/bamsammich/ferry/internal/progress"
)

// throttle limits how often tree snapshots reach the caller. The first
// snapshot is always forwarded; after that a snapshot is forwarded only when
// at least interval has passed since the last forwarded one. The most recent
// suppressed snapshot is kept for flush.
type throttle struct {
	last     time.Time
	pending  *progress.Snapshot
	fn       progress.Func
	interval time.Duration
	sent     bool
}

func newThrottle(fn progress.Func, interval time.Duration) *throttle {
	return &throttle{fn: fn, interval: interval}
}

// offer forwards s when the interval allows it and returns the callback's
// error. Suppressed snapshots return nil.
func (t *throttle) offer(s progress.Snapshot, now time.Time) error {
	if t.interval > 0 && t.sent && now.Sub(t.last) < t.interval {
		t.pending = &s
		return nil
	}
	t.sent = true
	t.last = now
	t.pending = nil
	return deliver(t.fn, s)
}

// flush forwards the last suppressed snapshot, if any.
func (t *throttle) flush() error {
	if t.pending == nil {
		return nil
	}
	s := *t.pending
	t.pending = nil
	t.sent = true
	t.last = s.Started.Add(s.Elapsed)
	return deliver(t.fn, s)
}
