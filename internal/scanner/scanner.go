// Package scanner walks a project tree and sorts files into assets and sources.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/orphan/pkg/config"
)

// Files is the result of a directory walk.
type Files struct {
	// Root is the absolute, symlink-resolved analysis root.
	Root    string
	Assets  []string
	Sources []string
}

// Scanner finds asset and source files in a directory.
type Scanner struct {
	config      *config.Config
	excludeDirs map[string]struct{}
	gitRoot     string
	gitMatcher  gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	dirs := make(map[string]struct{}, len(cfg.Exclude.Dirs))
	for _, d := range cfg.Exclude.Dirs {
		dirs[d] = struct{}{}
	}
	return &Scanner{config: cfg, excludeDirs: dirs}
}

// ValidatePattern reports an error for a glob doublestar cannot parse.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty glob pattern")
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return nil
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore below the repository root, or below
// root itself when it is not inside a repository.
func (s *Scanner) loadGitignore(root string) {
	s.gitMatcher = nil
	if !s.config.Exclude.Gitignore {
		return
	}
	s.gitRoot = findGitRoot(root)
	if s.gitRoot == "" {
		s.gitRoot = root
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(s.gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.gitMatcher = gitignore.NewMatcher(patterns)
}

// isExcluded checks a path against excluded directory names, configured
// globs and .gitignore rules. relPath is relative to the scan root.
func (s *Scanner) isExcluded(absPath, relPath string, isDir bool) bool {
	slashRel := filepath.ToSlash(relPath)

	if isDir {
		if _, ok := s.excludeDirs[filepath.Base(absPath)]; ok {
			return true
		}
	}

	for _, pattern := range s.config.Exclude.Patterns {
		if ok, _ := doublestar.Match(pattern, slashRel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, filepath.Base(absPath)); ok {
			return true
		}
	}

	if s.gitMatcher != nil {
		gitRel, err := filepath.Rel(s.gitRoot, absPath)
		if err == nil && gitRel != "." && !strings.HasPrefix(gitRel, "..") {
			if s.gitMatcher.Match(strings.Split(gitRel, string(filepath.Separator)), isDir) {
				return true
			}
		}
	}
	return false
}

// ScanDir walks root once and returns the files matching assetPattern and
// sourcePattern, both interpreted relative to root. Paths are absolute and
// sorted. Any walk error aborts the scan.
func (s *Scanner) ScanDir(root, assetPattern, sourcePattern string) (*Files, error) {
	for _, p := range []string{assetPattern, sourcePattern} {
		if err := ValidatePattern(p); err != nil {
			return nil, err
		}
	}
	assetPattern = filepath.ToSlash(assetPattern)
	sourcePattern = filepath.ToSlash(sourcePattern)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	s.loadGitignore(absRoot)

	files := &Files{Root: absRoot}
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == absRoot {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}

		isDir := d.IsDir()
		if d.Type()&fs.ModeSymlink != 0 {
			// Follow only symlinks that resolve inside the root.
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			target, err := os.Stat(resolved)
			if err != nil || target.IsDir() {
				return nil
			}
		}

		if isDir {
			if s.isExcluded(path, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.isExcluded(path, relPath, false) {
			return nil
		}

		slashRel := filepath.ToSlash(relPath)
		if ok, _ := doublestar.Match(assetPattern, slashRel); ok {
			files.Assets = append(files.Assets, path)
		}
		if ok, _ := doublestar.Match(sourcePattern, slashRel); ok {
			files.Sources = append(files.Sources, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(files.Assets)
	sort.Strings(files.Sources)
	return files, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
