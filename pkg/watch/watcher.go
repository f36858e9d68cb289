// Package watch re-runs an audit when assets or sources under a project
// directory change.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/orphan/pkg/config"
)

// DefaultDebounce is how long a batch of changes must stay quiet before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a project and triggers a callback for each settled batch
// of relevant changes.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	config       *config.Config
	debounce     time.Duration
	path         string
	assetPattern string
	out          io.Writer
	callback     func(changed []string)
	mu           sync.Mutex
	pending      map[string]time.Time
}

// NewWatcher creates a watcher for path. Files matching assetPattern or the
// configured source pattern are relevant; an empty assetPattern uses the
// configured one.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration, assetPattern string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if assetPattern == "" {
		assetPattern = cfg.Scan.AssetPattern
	}

	return &Watcher{
		fsWatcher:    fsWatcher,
		config:       cfg,
		debounce:     debounce,
		path:         path,
		assetPattern: assetPattern,
		out:          os.Stdout,
		pending:      make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function called with the changed files of a batch.
func (w *Watcher) SetCallback(cb func(changed []string)) {
	w.callback = cb
}

// SetOutput redirects status lines.
func (w *Watcher) SetOutput(out io.Writer) {
	w.out = out
}

// Start begins watching and blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}

	color.New(color.FgCyan).Fprintf(w.out, "Watching for changes in %s...\n", w.path)
	color.New(color.FgCyan).Fprintln(w.out, "Press Ctrl+C to stop")
	fmt.Fprintln(w.out)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
		}
	}
}

// addTree registers root and every non-excluded directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) excludedDir(name string) bool {
	return slices.Contains(w.config.Exclude.Dirs, name)
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.excludedDir(info.Name()) {
				_ = w.addTree(event.Name)
			}
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// relevant reports whether path is an asset or source file outside the
// configured exclusions.
func (w *Watcher) relevant(path string) bool {
	rel, err := filepath.Rel(w.path, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, p := range w.config.Exclude.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range []string{w.assetPattern, w.config.Scan.SourcePattern} {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(time.Now())
		}
	}
}

// processPending fires the callback once the most recent change in the
// batch is at least one debounce period old.
func (w *Watcher) processPending(now time.Time) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	var latest time.Time
	for _, t := range w.pending {
		if t.After(latest) {
			latest = t
		}
	}
	if now.Sub(latest) < w.debounce {
		w.mu.Unlock()
		return
	}

	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	sort.Strings(changed)
	w.runCallback(changed)
}

func (w *Watcher) runCallback(changed []string) {
	if w.callback == nil {
		return
	}

	for _, path := range changed {
		rel, err := filepath.Rel(w.path, path)
		if err != nil {
			rel = path
		}
		color.New(color.FgYellow).Fprintf(w.out, "Changed: %s\n", rel)
	}

	w.callback(changed)
	fmt.Fprintln(w.out)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
