// Package analyzer defines the contracts shared by the asset analysis stages
// and the progress plumbing they report through.
package analyzer

import "context"

// AssetAnalyzer checks a set of asset files against the source files that
// may reference them.
type AssetAnalyzer[T any] interface {
	// Analyze resolves which assets are referenced by the sources. Paths are
	// absolute or relative to the working directory; the context carries
	// cancellation and an optional Tracker.
	Analyze(ctx context.Context, assets, sources []string) (T, error)
}
