// Package source abstracts where source file content comes from.
package source

import (
	"errors"
	"fmt"
	"os"
)

//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=source.go -destination=mocksource.gen.go -package=source

// ErrFileTooLarge is returned when a file exceeds the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct {
	maxSize int64
}

// Option configures a FilesystemSource.
type Option func(*FilesystemSource)

// WithMaxSize rejects files larger than n bytes. Zero disables the limit.
func WithMaxSize(n int64) Option {
	return func(f *FilesystemSource) {
		f.maxSize = n
	}
}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem(opts ...Option) *FilesystemSource {
	f := &FilesystemSource{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	if f.maxSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() > f.maxSize {
			return nil, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrFileTooLarge)
		}
	}
	return os.ReadFile(path)
}
