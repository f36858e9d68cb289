// Package report writes the unused-asset report file.
//
// The format follows the file extension: ".txt" (any case) produces a
// plain-text listing, anything else produces JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/orphan/internal/filelock"
	"github.com/panbanda/orphan/pkg/analyzer/unused"
)

// Format is a report file format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// FormatFor picks the report format for an output path.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return FormatText
	}
	return FormatJSON
}

// Write renders the analysis to path. The file is replaced atomically so an
// interrupted run never leaves a truncated report.
func Write(path string, a *unused.Analysis, now time.Time) error {
	var buf bytes.Buffer
	if err := Render(&buf, FormatFor(path), a, now); err != nil {
		return err
	}
	if err := filelock.AtomicWrite(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Render writes the report in format to w.
func Render(w io.Writer, format Format, a *unused.Analysis, now time.Time) error {
	switch format {
	case FormatText:
		return RenderText(w, a, now)
	case FormatJSON:
		return RenderJSON(w, unused.NewReport(a, now))
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// RenderText writes the human-readable listing: a header, the generation
// time, the count, a blank line, then one unused path per line.
func RenderText(w io.Writer, a *unused.Analysis, now time.Time) error {
	lines := []string{
		"Unused Asset Report",
		"Generated: " + now.Local().Format(time.DateTime),
		fmt.Sprintf("Total unused: %d", len(a.Unused)),
		"",
		"Unused assets:",
	}
	lines = append(lines, a.UnusedPaths()...)
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// RenderJSON writes r as two-space indented JSON.
func RenderJSON(w io.Writer, r unused.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
