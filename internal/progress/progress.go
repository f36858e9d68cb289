// Package progress draws scan and match progress on stderr.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Bar reports per-file progress of a reference search.
type Bar struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	w     io.Writer
	label string
	total int
}

// Option configures a Bar.
type Option func(*Bar)

// WithWriter sends output somewhere other than stderr.
func WithWriter(w io.Writer) Option {
	return func(b *Bar) {
		b.w = w
	}
}

// NewSpinner creates a bar for work of unknown size, such as the directory walk.
func NewSpinner(label string, opts ...Option) *Bar {
	b := &Bar{w: os.Stderr, label: label, total: -1}
	for _, opt := range opts {
		opt(b)
	}
	b.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return b
}

// NewBar creates a counting bar over total source files.
func NewBar(label string, total int, opts ...Option) *Bar {
	b := &Bar{w: os.Stderr, label: label, total: total}
	for _, opt := range opts {
		opt(b)
	}
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return b
}

// Update moves the bar to current. Its signature matches the analysis
// progress callback so it can be passed directly.
func (b *Bar) Update(current, total int, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if total > 0 && total != b.total {
		b.total = total
		b.bar.ChangeMax(total)
	}
	_ = b.bar.Set(current)
}

// Tick advances the bar by one. Safe for concurrent use.
func (b *Bar) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Add(1)
}

// Done clears the bar.
func (b *Bar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
	_ = b.bar.Clear()
}

// Fail clears the bar and prints err under the bar's label.
func (b *Bar) Fail(err error) {
	b.Done()
	fmt.Fprintf(b.w, "  %s failed: %v\n", b.label, err)
}
