package output

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/disiqueira/gotree/v3"
)

// FileTree renders slash-separated relative paths as an indented tree.
type FileTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

// NewFileTree creates a tree with rootLabel at the top.
func NewFileTree(rootLabel string) *FileTree {
	return &FileTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t *FileTree) dir(path string) gotree.Tree {
	if path == "." || path == "" {
		return t.tree
	}
	if d, ok := t.dirs[path]; ok {
		return d
	}
	d := t.dir(filepath.ToSlash(filepath.Dir(path))).Add(filepath.Base(path) + "/")
	t.dirs[path] = d
	return d
}

// Insert adds a file. label replaces the file name when non-empty.
func (t *FileTree) Insert(path, label string) {
	path = filepath.ToSlash(path)
	if label == "" {
		label = filepath.Base(path)
	}
	t.dir(filepath.ToSlash(filepath.Dir(path))).Add(label)
}

// Render returns the printed tree.
func (t *FileTree) Render() string {
	return t.tree.Print()
}

// BuildTree inserts paths in sorted order so the tree is deterministic.
func BuildTree(rootLabel string, paths []string) *FileTree {
	sorted := append([]string(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(filepath.ToSlash(sorted[i])) < strings.ToLower(filepath.ToSlash(sorted[j]))
	})
	t := NewFileTree(rootLabel)
	for _, p := range sorted {
		t.Insert(p, "")
	}
	return t
}
