package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc is called to report simulation progress.
// current is the number of trials completed and total is the trial count.
type ProgressFunc func(current, total int)

// Tracker tracks progress for simulation runs.
// It is safe for concurrent use from multiple goroutines.
type Tracker struct {
	total    atomic.Int64
	current  atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a new progress tracker with the given callback.
// The callback is invoked on each Advance with (current, total).
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// SetTotal sets the total count. This replaces any previous total.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int64(n))
}

// Advance marks n trials as completed and invokes the callback if set.
func (t *Tracker) Advance(n int) {
	current := int(t.current.Add(int64(n)))
	total := int(t.total.Load())
	if t.callback != nil {
		t.callback(current, total)
	}
}

// Current returns the current progress count.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the total count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
// Use TrackerFromContext to extract it in the simulation loop.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context.
// Returns nil if no tracker was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
