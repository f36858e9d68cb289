package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc receives the number of processed items, the expected total
// and the item that was just completed.
type ProgressFunc func(current, total int, path string)

// Tracker counts processed files across goroutines and forwards each
// completion to an optional callback.
type Tracker struct {
	total    atomic.Int64
	current  atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker. callback may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add grows the expected total by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// SetTotal replaces the expected total.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int64(n))
}

// Tick records one completed item.
func (t *Tracker) Tick(path string) {
	current := t.current.Add(1)
	if t.callback != nil {
		t.callback(int(current), int(t.total.Load()), path)
	}
}

// Current returns the number of completed items.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the expected total.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

// Percent returns completion in the range [0, 100]. An empty tracker reports 0.
func (t *Tracker) Percent() float64 {
	total := t.total.Load()
	if total <= 0 {
		return 0
	}
	pct := float64(t.current.Load()) * 100 / float64(total)
	if pct > 100 {
		return 100
	}
	return pct
}

type trackerKey struct{}

// WithTracker returns a child context carrying t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker stored by WithTracker, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
