// Package refs decides which asset files are referenced by source files.
//
// Each source file is read once. For every asset a fixed sequence of textual
// checks runs against the content (filename, relative path, CSS url(),
// import/require, markup attributes, CSS backgrounds) and the first hit
// records a reference token. Dynamically built paths found along the way feed
// a directory set that serves as a last-resort check for assets nothing else
// matched.
package refs

import (
	"context"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/orphan/internal/fileproc"
	"github.com/panbanda/orphan/pkg/analyzer"
	"github.com/panbanda/orphan/pkg/analyzer/dynpath"
	"github.com/panbanda/orphan/pkg/source"
)

// Match is a positive match of one asset in one source file. Strategy is the
// first hit; Hits lists every static strategy that matched.
type Match struct {
	Asset    uint32     `json:"asset" toon:"asset"`
	Strategy Strategy   `json:"strategy" toon:"strategy"`
	Hits     []Strategy `json:"hits,omitempty" toon:"hits,omitempty"`
	Token    string     `json:"token" toon:"token"`
}

// FileResult is everything the static checks learned from one source file.
type FileResult struct {
	Path     string            `json:"path" toon:"path"`
	Matches  []Match           `json:"matches,omitempty" toon:"matches,omitempty"`
	Patterns []dynpath.Pattern `json:"patterns,omitempty" toon:"patterns,omitempty"`
}

// ResultCache stores per-file static results between runs. Implementations
// must only return a result computed from identical content and an identical
// asset set.
type ResultCache interface {
	Load(path string, content []byte) (*FileResult, bool)
	Store(path string, content []byte, result *FileResult)
}

// Result is the outcome of matching a set of sources against a set of assets.
type Result struct {
	References *ReferenceSet
	// Matched holds the indices of assets with at least one positive match.
	Matched *roaring.Bitmap
	// DynamicOnly holds the indices of assets matched solely through a
	// dynamic directory.
	DynamicOnly  *roaring.Bitmap
	ByStrategy   map[Strategy]int
	DynamicDirs  []string
	FilesScanned int
	Errors       []fileproc.ProcessingError
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithStrictBoundaries requires filenames to appear on path-segment
// boundaries instead of as plain substrings.
func WithStrictBoundaries() Option {
	return func(m *Matcher) {
		m.strict = true
	}
}

// WithSinglePass evaluates the dynamic-directory check inside the per-file
// loop, against the directories discovered in the files read so far,
// including the current one. Files are processed sequentially in the given
// order, so per-file hits depend on that order.
func WithSinglePass() Option {
	return func(m *Matcher) {
		m.singlePass = true
	}
}

// WithSource sets where file content is read from.
func WithSource(src source.ContentSource) Option {
	return func(m *Matcher) {
		m.source = src
	}
}

// WithWorkers bounds the number of files processed concurrently.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		m.workers = n
	}
}

// WithErrorHandler is called for every source file that cannot be read.
func WithErrorHandler(fn func(path string, err error)) Option {
	return func(m *Matcher) {
		m.onError = fn
	}
}

// WithCache reuses static results for unchanged files.
func WithCache(c ResultCache) Option {
	return func(m *Matcher) {
		m.cache = c
	}
}

// Matcher finds references to assets in source files.
type Matcher struct {
	strict     bool
	singlePass bool
	workers    int
	source     source.ContentSource
	onError    func(path string, err error)
	cache      ResultCache
}

// New creates a matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		source: source.NewFilesystem(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FindReferences reads every source file once and records which assets are
// referenced. Unreadable files are reported through the error handler and
// skipped. The returned error is non-nil only when ctx is cancelled.
func (m *Matcher) FindReferences(ctx context.Context, sourceFiles []string, assets []Asset) (*Result, error) {
	run := &matchRun{
		checkers: make([]*checker, len(assets)),
		dirs:     dynpath.NewDirSet(),
		refs:     NewReferenceSet(),
		static:   roaring.New(),
		dynamic:  roaring.New(),
		counts:   make(map[Strategy]int),
	}
	for i, a := range assets {
		run.checkers[i] = newChecker(a, m.strict)
	}

	var errs *fileproc.ProcessingErrors
	if m.singlePass {
		errs = m.sequential(ctx, run, sourceFiles)
	} else {
		errs = m.parallel(ctx, run, sourceFiles)
		run.fallback(nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		References:   run.refs,
		Matched:      roaring.Or(run.static, run.dynamic),
		DynamicOnly:  roaring.AndNot(run.dynamic, run.static),
		ByStrategy:   run.counts,
		DynamicDirs:  run.dirs.Dirs(),
		FilesScanned: run.scanned,
		Errors:       errs.Sorted(),
	}
	return res, nil
}

// parallel processes files on a worker pool. Only the static checks run
// here; the dynamic fallback waits until every directory is known.
func (m *Matcher) parallel(ctx context.Context, run *matchRun, files []string) *fileproc.ProcessingErrors {
	results, errs := fileproc.ForEachFileN(ctx, files, m.workers, func(path string) (*FileResult, error) {
		fr, err := m.scanFile(run, path)
		if err != nil {
			m.reportError(path, err)
			return nil, err
		}
		run.dirs.Add(fr.Patterns...)
		return fr, nil
	})

	// Merge in path order so ByStrategy and tokens do not depend on scheduling.
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	for _, fr := range results {
		run.merge(fr)
	}
	return errs
}

// sequential processes files in order. After each file's static checks the
// dynamic fallback runs against the directories found up to and including
// that file.
func (m *Matcher) sequential(ctx context.Context, run *matchRun, files []string) *fileproc.ProcessingErrors {
	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(files))
	}

	errs := &fileproc.ProcessingErrors{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			errs.Add(path, err)
			break
		}

		fr, err := m.scanFile(run, path)
		if tracker != nil {
			tracker.Tick(path)
		}
		if err != nil {
			m.reportError(path, err)
			errs.Add(path, err)
			continue
		}

		run.merge(fr)
		run.dirs.Add(fr.Patterns...)

		matchedHere := roaring.New()
		for _, match := range fr.Matches {
			matchedHere.Add(match.Asset)
		}
		run.fallback(matchedHere)
	}
	return errs
}

// scanFile reads one file and runs the static checks against it.
func (m *Matcher) scanFile(run *matchRun, path string) (*FileResult, error) {
	data, err := m.source.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	if m.cache != nil {
		if fr, ok := m.cache.Load(path, data); ok {
			fr.Path = path
			return fr, nil
		}
	}

	content := string(data)
	fr := &FileResult{Path: path, Patterns: dynpath.Detect(content)}
	for i, c := range run.checkers {
		if hits := c.hits(content); len(hits) > 0 {
			fr.Matches = append(fr.Matches, Match{Asset: uint32(i), Strategy: hits[0], Hits: hits, Token: c.token(hits[0])})
		}
	}

	if m.cache != nil {
		m.cache.Store(path, data, fr)
	}
	return fr, nil
}

func (m *Matcher) reportError(path string, err error) {
	if m.onError != nil {
		m.onError(path, err)
	}
}

// matchRun is the accumulator for one FindReferences call.
type matchRun struct {
	checkers []*checker
	dirs     *dynpath.DirSet
	refs     *ReferenceSet
	static   *roaring.Bitmap
	dynamic  *roaring.Bitmap
	counts   map[Strategy]int
	scanned  int
}

func (r *matchRun) merge(fr *FileResult) {
	r.scanned++
	for _, match := range fr.Matches {
		if int(match.Asset) >= len(r.checkers) {
			continue
		}
		r.refs.Add(match.Token)
		r.static.Add(match.Asset)
		if len(match.Hits) == 0 {
			r.counts[match.Strategy]++
			continue
		}
		for _, s := range match.Hits {
			r.counts[s]++
		}
	}
}

// fallback applies the dynamic-directory check to every asset not in skip
// (or, when skip is nil, not statically matched anywhere). Strict checkers
// only accept directories that begin the asset path.
func (r *matchRun) fallback(skip *roaring.Bitmap) {
	if r.dirs.Len() == 0 {
		return
	}
	if skip == nil {
		skip = r.static
	}
	for i, c := range r.checkers {
		if skip.Contains(uint32(i)) {
			continue
		}
		match := r.dirs.Match
		if c.strict {
			match = r.dirs.MatchPrefix
		}
		if _, ok := match(c.asset.NormalizedPath); ok {
			r.refs.Add(c.asset.RelPath)
			r.dynamic.Add(uint32(i))
			r.counts[StrategyDynamicDir]++
		}
	}
}

// FindReferences matches sourceFiles against assetFiles using the default
// matcher. Asset paths are made relative to baseDir.
func FindReferences(ctx context.Context, sourceFiles, assetFiles []string, baseDir string) (*ReferenceSet, error) {
	assets, err := NewAssets(baseDir, assetFiles)
	if err != nil {
		return nil, err
	}
	res, err := New().FindReferences(ctx, sourceFiles, assets)
	if err != nil {
		return nil, err
	}
	return res.References, nil
}
