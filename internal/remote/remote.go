// Package remote resolves and clones repositories given in place of a
// local project directory.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to scan.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	if strings.HasPrefix(path, "git@") {
		if !strings.Contains(path, ":") {
			return nil, fmt.Errorf("invalid ssh remote %q", path)
		}
		return &Source{URL: path}, nil
	}

	ref := ""
	if idx := strings.LastIndex(path, "@"); idx != -1 {
		ref = path[idx+1:]
		path = path[:idx]
		if ref == "" {
			return nil, fmt.Errorf("empty ref in %q", path+"@")
		}
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// isHostPath reports whether path looks like host.tld/owner/repo.
func isHostPath(path string) bool {
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return false
	}
	host := parts[0]
	if strings.HasPrefix(host, ".") || !strings.Contains(host, ".") {
		return false
	}
	return parts[1] != "" && parts[2] != ""
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// A dot before the slash would indicate a domain.
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone fetches the repository into a fresh temp directory and checks out
// Ref. Progress from the transport is written to progress.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "orphan-clone-*")
	if err != nil {
		return fmt.Errorf("create clone dir: %w", err)
	}

	isCommit := plumbing.IsHash(s.Ref)
	opts := &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
		Tags:     git.NoTags,
	}
	// An arbitrary commit may not be reachable from a depth-1 clone.
	if shallow && !isCommit {
		opts.Depth = 1
		opts.SingleBranch = true
	}
	if s.Ref != "" && !isCommit {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.Ref)
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil && opts.ReferenceName != "" {
		// Not a branch; retry as a tag.
		if err = resetDir(dir); err != nil {
			return err
		}
		opts.ReferenceName = plumbing.NewTagReferenceName(s.Ref)
		repo, err = git.PlainCloneContext(ctx, dir, false, opts)
	}
	if err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("clone %s: %w", s.URL, err)
	}

	if isCommit {
		wt, err := repo.Worktree()
		if err != nil {
			_ = os.RemoveAll(dir)
			return fmt.Errorf("open worktree: %w", err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(s.Ref)}); err != nil {
			_ = os.RemoveAll(dir)
			return fmt.Errorf("checkout %s: %w", s.Ref, err)
		}
	}

	s.CloneDir = dir
	return nil
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("reset clone dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create clone dir: %w", err)
	}
	return nil
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() error {
	if s.CloneDir == "" {
		return nil
	}
	err := os.RemoveAll(s.CloneDir)
	s.CloneDir = ""
	return err
}
