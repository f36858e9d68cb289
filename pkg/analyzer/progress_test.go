package analyzer

import (
	"context"
	"sync"
	"testing"
)

type tick struct {
	current, total int
	path           string
}

func TestTracker_AddAndTick(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []tick
	)
	tracker := NewTracker(func(current, total int, path string) {
		mu.Lock()
		calls = append(calls, tick{current, total, path})
		mu.Unlock()
	})

	tracker.Add(3)
	tracker.Tick("logo.png")
	tracker.Tick("app.css")
	tracker.Tick("index.html")

	if got := tracker.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
	if got := tracker.Current(); got != 3 {
		t.Errorf("Current() = %d, want 3", got)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 callback calls, got %d", len(calls))
	}
	if calls[0] != (tick{1, 3, "logo.png"}) {
		t.Errorf("first call = %+v", calls[0])
	}
	if calls[2] != (tick{3, 3, "index.html"}) {
		t.Errorf("last call = %+v", calls[2])
	}
}

func TestTracker_SetTotal(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(5)
	tracker.SetTotal(10)
	if got := tracker.Total(); got != 10 {
		t.Errorf("Total() = %d, want 10", got)
	}
}

func TestTracker_Percent(t *testing.T) {
	tracker := NewTracker(nil)
	if got := tracker.Percent(); got != 0 {
		t.Errorf("empty Percent() = %v, want 0", got)
	}

	tracker.Add(4)
	tracker.Tick("a")
	if got := tracker.Percent(); got != 25 {
		t.Errorf("Percent() = %v, want 25", got)
	}

	for i := 0; i < 5; i++ {
		tracker.Tick("b")
	}
	if got := tracker.Percent(); got != 100 {
		t.Errorf("overflowed Percent() = %v, want 100", got)
	}
}

func TestTracker_ConcurrentTicks(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Tick("file.js")
		}()
	}
	wg.Wait()

	if got := tracker.Current(); got != 100 {
		t.Errorf("Current() = %d, want 100", got)
	}
}

func TestTrackerContext(t *testing.T) {
	if TrackerFromContext(context.Background()) != nil {
		t.Error("expected nil tracker for bare context")
	}

	tracker := NewTracker(nil)
	ctx := WithTracker(context.Background(), tracker)
	if TrackerFromContext(ctx) != tracker {
		t.Error("TrackerFromContext should return the stored tracker")
	}
}
