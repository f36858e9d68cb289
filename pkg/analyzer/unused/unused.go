// Package unused turns matcher output into the list of unreferenced assets.
package unused

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/orphan/pkg/analyzer"
	"github.com/panbanda/orphan/pkg/analyzer/refs"
)

// Filter returns the relative paths of assets whose filename and relative
// path are both absent from every token in set. The check is substring
// based: a token "img/logo.png" covers an asset named "logo.png".
func Filter(assets []refs.Asset, set *refs.ReferenceSet) []string {
	tokens := set.Tokens()
	var out []string
	for _, a := range assets {
		if !referenced(a, tokens) {
			out = append(out, a.RelPath)
		}
	}
	sort.Strings(out)
	return out
}

func referenced(a refs.Asset, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(tok, a.Name) || strings.Contains(tok, a.RelPath) {
			return true
		}
	}
	return false
}

// UnusedAsset is an asset with no detectable reference.
type UnusedAsset struct {
	Path string `json:"path" toon:"path"`
	Size int64  `json:"size" toon:"size"`
}

// Summary holds aggregate statistics for an analysis.
type Summary struct {
	TotalAssets  int                   `json:"total_assets" toon:"total_assets"`
	TotalSources int                   `json:"total_sources" toon:"total_sources"`
	TotalUnused  int                   `json:"total_unused" toon:"total_unused"`
	UnusedBytes  int64                 `json:"unused_bytes" toon:"unused_bytes"`
	FilesScanned int                   `json:"files_scanned" toon:"files_scanned"`
	ReadErrors   int                   `json:"read_errors" toon:"read_errors"`
	DynamicDirs  []string              `json:"dynamic_dirs,omitempty" toon:"dynamic_dirs,omitempty"`
	// ByStrategy counts (file, asset) hits per strategy. One reference can
	// satisfy several static strategies and is counted under each.
	ByStrategy   map[refs.Strategy]int `json:"by_strategy,omitempty" toon:"by_strategy,omitempty"`
}

// Analysis is the result of an unused-asset run.
type Analysis struct {
	Root       string        `json:"root" toon:"root"`
	Unused     []UnusedAsset `json:"unused" toon:"unused"`
	Summary    Summary       `json:"summary" toon:"summary"`
	AnalyzedAt time.Time     `json:"analyzed_at" toon:"analyzed_at"`

	// PossiblyUsed lists assets kept only because they live under a
	// dynamically referenced directory.
	PossiblyUsed []string `json:"possibly_used,omitempty" toon:"possibly_used,omitempty"`
}

// UnusedPaths returns the relative paths of the unused assets.
func (a *Analysis) UnusedPaths() []string {
	paths := make([]string, len(a.Unused))
	for i, u := range a.Unused {
		paths[i] = u.Path
	}
	return paths
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMatcherOptions passes options through to the reference matcher.
func WithMatcherOptions(opts ...refs.Option) Option {
	return func(a *Analyzer) {
		a.matcherOpts = append(a.matcherOpts, opts...)
	}
}

// WithReportDynamic fills Analysis.PossiblyUsed.
func WithReportDynamic() Option {
	return func(a *Analyzer) {
		a.reportDynamic = true
	}
}

// WithClock overrides the time source for AnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// Analyzer finds assets that no source file references.
type Analyzer struct {
	root          string
	matcherOpts   []refs.Option
	reportDynamic bool
	now           func() time.Time
}

var _ analyzer.AssetAnalyzer[*Analysis] = (*Analyzer)(nil)

// New creates an analyzer for assets below root.
func New(root string, opts ...Option) *Analyzer {
	a := &Analyzer{root: root, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze matches sources against assets and reports the unreferenced ones.
func (a *Analyzer) Analyze(ctx context.Context, assetFiles, sourceFiles []string) (*Analysis, error) {
	assets, err := refs.NewAssets(a.root, assetFiles)
	if err != nil {
		return nil, err
	}

	res, err := refs.New(a.matcherOpts...).FindReferences(ctx, sourceFiles, assets)
	if err != nil {
		return nil, err
	}

	byRel := make(map[string]refs.Asset, len(assets))
	for _, asset := range assets {
		byRel[asset.RelPath] = asset
	}

	analysis := &Analysis{
		Root:       a.root,
		Unused:     []UnusedAsset{},
		AnalyzedAt: a.now().UTC(),
		Summary: Summary{
			TotalAssets:  len(assets),
			TotalSources: len(sourceFiles),
			FilesScanned: res.FilesScanned,
			ReadErrors:   len(res.Errors),
			DynamicDirs:  res.DynamicDirs,
			ByStrategy:   res.ByStrategy,
		},
	}

	for _, rel := range Filter(assets, res.References) {
		u := UnusedAsset{Path: rel}
		if info, err := os.Stat(byRel[rel].Path); err == nil {
			u.Size = info.Size()
		}
		analysis.Unused = append(analysis.Unused, u)
		analysis.Summary.UnusedBytes += u.Size
	}
	analysis.Summary.TotalUnused = len(analysis.Unused)

	if a.reportDynamic {
		it := res.DynamicOnly.Iterator()
		for it.HasNext() {
			analysis.PossiblyUsed = append(analysis.PossiblyUsed, assets[it.Next()].RelPath)
		}
		sort.Strings(analysis.PossiblyUsed)
	}

	return analysis, nil
}

// Report is the serialized form written to the output file.
type Report struct {
	Timestamp    string   `json:"timestamp"`
	TotalUnused  int      `json:"totalUnused"`
	UnusedAssets []string `json:"unusedAssets"`
}

// NewReport builds the output-file model for a. The timestamp is ISO-8601 UTC
// with millisecond precision.
func NewReport(a *Analysis, now time.Time) Report {
	paths := a.UnusedPaths()
	return Report{
		Timestamp:    now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		TotalUnused:  len(paths),
		UnusedAssets: paths,
	}
}
