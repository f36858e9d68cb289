package refs

import (
	"fmt"
	"path/filepath"
)

// Asset describes a candidate static file. It is computed once per asset at
// the start of a run and never modified.
type Asset struct {
	// Path is the absolute path of the file.
	Path string `json:"path" toon:"path"`
	// Name is the base name, e.g. "logo.png".
	Name string `json:"name" toon:"name"`
	// RelPath is relative to the analysis root using OS separators.
	RelPath string `json:"rel_path" toon:"rel_path"`
	// NormalizedPath is RelPath with forward slashes.
	NormalizedPath string `json:"normalized_path" toon:"normalized_path"`
}

// NewAsset builds the descriptor for path relative to root.
func NewAsset(root, path string) (Asset, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Asset{}, fmt.Errorf("resolve root %s: %w", root, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Asset{}, fmt.Errorf("resolve asset %s: %w", path, err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %s is not under %s: %w", path, root, err)
	}
	return Asset{
		Path:           absPath,
		Name:           filepath.Base(absPath),
		RelPath:        rel,
		NormalizedPath: filepath.ToSlash(rel),
	}, nil
}

// NewAssets builds descriptors for every path, preserving order.
func NewAssets(root string, paths []string) ([]Asset, error) {
	assets := make([]Asset, 0, len(paths))
	for _, p := range paths {
		a, err := NewAsset(root, p)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}
