package fileproc

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/panbanda/orphan/pkg/analyzer"
)

func TestForEachFile_CollectsResults(t *testing.T) {
	files := []string{"a.js", "b.js", "c.js"}

	results, errs := ForEachFile(context.Background(), files, func(path string) (string, error) {
		return path + "!", nil
	})

	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	sort.Strings(results)
	want := []string{"a.js!", "b.js!", "c.js!"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %q, want %q", i, results[i], want[i])
		}
	}
}

func TestForEachFile_Empty(t *testing.T) {
	results, errs := ForEachFile(context.Background(), nil, func(string) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	if results != nil || errs != nil {
		t.Errorf("expected nil results and errors, got %v %v", results, errs)
	}
}

func TestForEachFile_ErrorsDoNotStopOthers(t *testing.T) {
	files := []string{"ok1.css", "bad.css", "ok2.css"}
	boom := errors.New("boom")

	results, errs := ForEachFileN(context.Background(), files, 1, func(path string) (string, error) {
		if path == "bad.css" {
			return "", boom
		}
		return path, nil
	})

	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
	if !errs.HasErrors() {
		t.Fatal("expected errors")
	}
	sorted := errs.Sorted()
	if len(sorted) != 1 || sorted[0].Path != "bad.css" {
		t.Fatalf("unexpected errors: %v", sorted)
	}
	if !errors.Is(sorted[0], boom) {
		t.Error("ProcessingError should unwrap to the original error")
	}
	if got := errs.Error(); got != "bad.css: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestForEachFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, errs := ForEachFile(ctx, []string{"a", "b"}, func(string) (int, error) {
		calls.Add(1)
		return 1, nil
	})

	if calls.Load() != 0 {
		t.Errorf("fn called %d times after cancellation", calls.Load())
	}
	if errs == nil || len(errs.Errors) != 2 {
		t.Fatalf("expected 2 cancellation errors, got %v", errs)
	}
	if !errors.Is(errs.Errors[0], context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", errs.Errors[0].Err)
	}
}

func TestForEachFile_TicksTracker(t *testing.T) {
	var ticks atomic.Int32
	tracker := analyzer.NewTracker(func(current, total int, path string) {
		ticks.Add(1)
	})
	ctx := analyzer.WithTracker(context.Background(), tracker)

	_, _ = ForEachFile(ctx, []string{"a", "b", "c"}, func(string) (struct{}, error) {
		return struct{}{}, nil
	})

	if ticks.Load() != 3 {
		t.Errorf("tracker ticked %d times, want 3", ticks.Load())
	}
	if tracker.Total() != 3 {
		t.Errorf("tracker total = %d, want 3", tracker.Total())
	}
}

func TestProcessingErrors_Summary(t *testing.T) {
	errs := &ProcessingErrors{}
	if errs.HasErrors() {
		t.Error("empty collection should have no errors")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Error() = %q", errs.Error())
	}

	errs.Add("b", errors.New("x"))
	errs.Add("a", errors.New("y"))
	if got := errs.Error(); got != "2 files failed to process (first: b: x)" {
		t.Errorf("Error() = %q", got)
	}
	if sorted := errs.Sorted(); sorted[0].Path != "a" {
		t.Errorf("Sorted()[0] = %q, want a", sorted[0].Path)
	}

	var nilErrs *ProcessingErrors
	if nilErrs.HasErrors() {
		t.Error("nil collection should have no errors")
	}
}
