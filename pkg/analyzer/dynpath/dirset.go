package dynpath

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DirSet is the run-wide set of directories known to hold dynamically
// referenced assets. It only grows and is safe for concurrent use.
type DirSet struct {
	mu   sync.RWMutex
	dirs map[string]struct{}
}

// NewDirSet creates an empty directory set.
func NewDirSet() *DirSet {
	return &DirSet{dirs: make(map[string]struct{})}
}

// Add records the base directory of each pattern.
func (s *DirSet) Add(patterns ...Pattern) {
	if len(patterns) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range patterns {
		if dir := NormalizeDir(p.BaseDir); dir != "" {
			s.dirs[dir] = struct{}{}
		}
	}
}

// Match reports whether relPath (slash separated, relative to the analysis
// root) lives below one of the recorded directories. A directory matches
// when it is a leading path of relPath or appears as a whole-segment run
// inside it, so "assets" covers both "assets/a.png" and "public/assets/a.png".
func (s *DirSet) Match(relPath string) (string, bool) {
	relPath = filepath.ToSlash(relPath)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for dir := range s.dirs {
		if strings.HasPrefix(relPath, dir+"/") || strings.Contains(relPath, "/"+dir+"/") {
			return dir, true
		}
	}
	return "", false
}

// MatchPrefix is the strict form of Match: a directory only covers relPath
// when relPath begins with it.
func (s *DirSet) MatchPrefix(relPath string) (string, bool) {
	relPath = filepath.ToSlash(relPath)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for dir := range s.dirs {
		if strings.HasPrefix(relPath, dir+"/") {
			return dir, true
		}
	}
	return "", false
}

// Dirs returns the recorded directories in sorted order.
func (s *DirSet) Dirs() []string {
	s.mu.RLock()
	dirs := make([]string, 0, len(s.dirs))
	for dir := range s.dirs {
		dirs = append(dirs, dir)
	}
	s.mu.RUnlock()
	sort.Strings(dirs)
	return dirs
}

// Len returns the number of recorded directories.
func (s *DirSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirs)
}

// NormalizeDir converts a base directory as written in source code into the
// form used for matching against relative asset paths: forward slashes, no
// leading "./", "../", "/", "~/" or "@/" segments and no trailing slash.
func NormalizeDir(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	for {
		trimmed := dir
		for _, prefix := range []string{"./", "../", "~/", "@/", "/"} {
			trimmed = strings.TrimPrefix(trimmed, prefix)
		}
		if trimmed == dir {
			break
		}
		dir = trimmed
	}
	dir = strings.TrimRight(dir, "/")
	if dir == "." || dir == ".." || dir == "~" || dir == "@" {
		return ""
	}
	return dir
}
