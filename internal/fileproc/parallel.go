// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/panbanda/orphan/pkg/analyzer"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string `json:"path" toon:"path"`
	Err  error  `json:"-" toon:"-"`
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Sorted returns a copy of the collected errors ordered by path.
func (e *ProcessingErrors) Sorted() []ProcessingError {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	out := make([]ProcessingError, len(e.Errors))
	copy(out, e.Errors)
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// Reading sources is I/O bound, so more workers than cores keeps the CPU busy.
const DefaultWorkerMultiplier = 2

// ForEachFile processes files in parallel with the default worker count.
func ForEachFile[T any](ctx context.Context, files []string, fn func(string) (T, error)) ([]T, *ProcessingErrors) {
	return ForEachFileN(ctx, files, 0, fn)
}

// ForEachFileN processes files using at most maxWorkers goroutines
// (NumCPU * DefaultWorkerMultiplier when maxWorkers <= 0).
//
// Results come back in completion order. A failing file never stops the
// others: its error is collected and the returned *ProcessingErrors is nil
// when every file succeeded. Files not yet started when ctx is cancelled are
// recorded with ctx.Err(). If ctx carries an analyzer.Tracker it is ticked
// once per file.
func ForEachFileN[T any](ctx context.Context, files []string, maxWorkers int, fn func(string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(files))
	}

	var (
		mu      sync.Mutex
		results = make([]T, 0, len(files))
		errs    = &ProcessingErrors{}
	)

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, path := range files {
		p.Go(func() {
			if tracker != nil {
				defer tracker.Tick(path)
			}

			if err := ctx.Err(); err != nil {
				errs.Add(path, err)
				return
			}

			result, err := fn(path)
			if err != nil {
				errs.Add(path, err)
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
