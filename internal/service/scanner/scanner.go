// Package scanner exposes directory scanning as a service with typed errors.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/panbanda/orphan/internal/scanner"
	"github.com/panbanda/orphan/pkg/config"
)

// ScanResult contains the result of a project scan.
type ScanResult struct {
	// Root is the absolute analysis root all relative paths are based on.
	Root    string
	Assets  []string
	Sources []string
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{config: config.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.DefaultConfig()
	}
	return s
}

// Scan walks dir and collects assets matching assetPattern and sources
// matching the configured source pattern. An empty assetPattern uses the
// configured one.
func (s *Service) Scan(dir, assetPattern string) (*ScanResult, error) {
	if assetPattern == "" {
		assetPattern = s.config.Scan.AssetPattern
	}
	for _, p := range []string{assetPattern, s.config.Scan.SourcePattern} {
		if err := scanner.ValidatePattern(p); err != nil {
			return nil, &PatternError{Pattern: p, Err: err}
		}
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, &PathError{Path: dir, Err: err}
	}

	files, err := scanner.NewScanner(s.config).ScanDir(absDir, assetPattern, s.config.Scan.SourcePattern)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PathError{Path: dir, Err: err}
		}
		return nil, &ScanError{Path: dir, Err: err}
	}

	return &ScanResult{
		Root:    files.Root,
		Assets:  files.Assets,
		Sources: files.Sources,
	}, nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// PatternError indicates a glob that cannot be parsed.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
