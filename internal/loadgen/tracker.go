package loadgen

import (
	"sync"
	"sync/atomic"

	"github.com/wesleyorama2/htmlbench/internal/output"
)

// Tracker counts successful requests across all users and announces once
// when an optional target count is reached. Later successes past the target
// stay silent, and reaching the target does not stop the run.
type Tracker struct {
	console *output.Console
	target  int64

	count    atomic.Int64
	reached  sync.Once
	isTarget atomic.Bool
}

// NewTracker returns a tracker. A target of zero or less disables the
// announcement.
func NewTracker(console *output.Console, target int64) *Tracker {
	return &Tracker{console: console, target: target}
}

// Success counts one successful request and returns the new total.
func (t *Tracker) Success() int64 {
	n := t.count.Add(1)
	if t.target > 0 && n >= t.target {
		t.reached.Do(func() {
			t.isTarget.Store(true)
			t.console.Success("Target %d requests reached", t.target)
		})
	}
	return n
}

// Failure reports a failed request. Failures are not counted.
func (t *Tracker) Failure(name string, err error) {
	t.console.Error("Request failed: %s - %v", name, err)
}

// Count returns the number of successful requests.
func (t *Tracker) Count() int64 {
	return t.count.Load()
}

// TargetReached reports whether the target announcement has fired.
func (t *Tracker) TargetReached() bool {
	return t.isTarget.Load()
}
