// Package analysis runs unused-asset detection over a scanned project.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/panbanda/orphan/internal/cache"
	"github.com/panbanda/orphan/internal/logger"
	"github.com/panbanda/orphan/internal/service/scanner"
	"github.com/panbanda/orphan/pkg/analyzer"
	"github.com/panbanda/orphan/pkg/analyzer/refs"
	"github.com/panbanda/orphan/pkg/analyzer/unused"
	"github.com/panbanda/orphan/pkg/config"
	"github.com/panbanda/orphan/pkg/source"
)

// Service orchestrates unused-asset analysis.
type Service struct {
	config *config.Config
	log    *logger.Logger
	source source.ContentSource
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger used for skipped files and cache problems.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithSource replaces the filesystem reader (for testing).
func WithSource(src source.ContentSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithClock sets the time source for analysis timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		log:    logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Options configures a single run. Zero values fall back to the service
// configuration.
type Options struct {
	Strict        bool
	SinglePass    bool
	ReportDynamic bool
	Workers       int
	MaxFileSize   int64
	// UseCache enables the per-file result cache in config.Cache.Dir.
	UseCache   bool
	OnProgress analyzer.ProgressFunc
	// OnError is called for every source file that could not be read.
	OnError func(path string, err error)
}

// OptionsFromConfig returns run options matching cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Strict:        cfg.Match.Strict,
		SinglePass:    cfg.Match.SinglePass,
		ReportDynamic: cfg.Match.ReportDynamic,
		Workers:       cfg.Match.Workers,
		MaxFileSize:   cfg.Match.MaxFileSize,
		UseCache:      cfg.Cache.Enabled,
	}
}

// FindUnusedAssets matches the scanned sources against the scanned assets.
func (s *Service) FindUnusedAssets(ctx context.Context, scan *scanner.ScanResult, opts Options) (*unused.Analysis, error) {
	assets := append([]string(nil), scan.Assets...)
	sort.Strings(assets)

	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = s.config.Match.MaxFileSize
	}
	workers := opts.Workers
	if workers == 0 {
		workers = s.config.Match.Workers
	}

	src := s.source
	if src == nil {
		var srcOpts []source.Option
		if maxSize > 0 {
			srcOpts = append(srcOpts, source.WithMaxSize(maxSize))
		}
		src = source.NewFilesystem(srcOpts...)
	}

	matcherOpts := []refs.Option{
		refs.WithSource(src),
		refs.WithErrorHandler(func(path string, err error) {
			s.log.Warnf("skipping %s: %v", path, err)
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
		}),
	}
	if opts.Strict {
		matcherOpts = append(matcherOpts, refs.WithStrictBoundaries())
	}
	if opts.SinglePass {
		matcherOpts = append(matcherOpts, refs.WithSinglePass())
	}
	if workers > 0 {
		matcherOpts = append(matcherOpts, refs.WithWorkers(workers))
	}
	if opts.UseCache {
		rc, err := s.openCache(scan.Root, assets, opts.Strict)
		if err != nil {
			s.log.Warnf("result cache disabled: %v", err)
		} else {
			matcherOpts = append(matcherOpts, refs.WithCache(rc))
		}
	}

	analyzerOpts := []unused.Option{
		unused.WithMatcherOptions(matcherOpts...),
		unused.WithClock(s.now),
	}
	if opts.ReportDynamic {
		analyzerOpts = append(analyzerOpts, unused.WithReportDynamic())
	}

	tracker := analyzer.NewTracker(opts.OnProgress)
	ctx = analyzer.WithTracker(ctx, tracker)

	s.log.Debugf("matching %d sources against %d assets", len(scan.Sources), len(assets))
	a, err := unused.New(scan.Root, analyzerOpts...).Analyze(ctx, assets, scan.Sources)
	if err != nil {
		return nil, &AnalysisError{Root: scan.Root, Err: err}
	}
	s.log.Debugf("found %d unused assets, %d dynamic directories", a.Summary.TotalUnused, len(a.Summary.DynamicDirs))
	return a, nil
}

func (s *Service) openCache(root string, assets []string, strict bool) (*resultCache, error) {
	rel := make([]string, len(assets))
	for i, p := range assets {
		r, err := filepath.Rel(root, p)
		if err != nil {
			r = p
		}
		rel[i] = r
	}

	dir := s.config.Cache.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	ttl := time.Duration(s.config.Cache.TTL) * time.Hour

	c, err := cache.New(dir, ttl, cache.Fingerprint(rel, strict))
	if err != nil {
		return nil, err
	}
	return &resultCache{cache: c, log: s.log}, nil
}

// resultCache stores refs.FileResult values as JSON in the on-disk cache.
type resultCache struct {
	cache *cache.Cache
	log   *logger.Logger
}

func (r *resultCache) Load(path string, content []byte) (*refs.FileResult, bool) {
	data, ok := r.cache.Get(path, content)
	if !ok {
		return nil, false
	}
	var fr refs.FileResult
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, false
	}
	return &fr, true
}

func (r *resultCache) Store(path string, content []byte, result *refs.FileResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := r.cache.Set(path, content, data); err != nil {
		r.log.Debugf("cache write %s: %v", path, err)
	}
}

// AnalysisError wraps a failed analysis run.
type AnalysisError struct {
	Root string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis of %s failed: %v", e.Root, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
