package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/panbanda/orphan/pkg/analyzer/unused"
)

// UnusedView renders an unused-asset analysis for the console.
type UnusedView struct {
	Analysis *unused.Analysis
	// Tree prints the unused assets as a directory tree instead of a table.
	Tree bool
}

// NewUnusedView wraps an analysis for rendering.
func NewUnusedView(a *unused.Analysis, tree bool) *UnusedView {
	return &UnusedView{Analysis: a, Tree: tree}
}

func (v *UnusedView) RenderData() any {
	return v.Analysis
}

func (v *UnusedView) RenderText(w io.Writer, colored bool) error {
	a := v.Analysis
	if len(a.Unused) == 0 {
		line := "No unused assets found."
		if colored {
			line = color.GreenString(line)
		}
		fmt.Fprintln(w, line)
		return v.renderPossiblyUsed(w, colored)
	}

	header := fmt.Sprintf("Found %d unused assets:", len(a.Unused))
	if colored {
		header = color.GreenString(header)
	}
	fmt.Fprintln(w, header)

	switch {
	case v.Tree:
		fmt.Fprint(w, BuildTree(rootLabel(a.Root), a.UnusedPaths()).Render())
	case colored:
		for _, u := range a.Unused {
			fmt.Fprintln(w, color.YellowString("- %s", u.Path))
		}
	default:
		for _, u := range a.Unused {
			fmt.Fprintf(w, "- %s\n", u.Path)
		}
	}
	fmt.Fprintln(w)

	table := &Table{
		Headers: []string{"Asset", "Size"},
		Footer:  []string{fmt.Sprintf("%d files", len(a.Unused)), FormatBytes(a.Summary.UnusedBytes)},
	}
	for _, u := range a.Unused {
		table.Rows = append(table.Rows, []string{u.Path, FormatBytes(u.Size)})
	}
	if err := table.RenderText(w, colored); err != nil {
		return err
	}
	return v.renderPossiblyUsed(w, colored)
}

func (v *UnusedView) renderPossiblyUsed(w io.Writer, colored bool) error {
	if len(v.Analysis.PossiblyUsed) == 0 {
		return nil
	}
	header := fmt.Sprintf("Possibly used through dynamic paths (%d):", len(v.Analysis.PossiblyUsed))
	if colored {
		header = color.CyanString(header)
	}
	fmt.Fprintln(w, header)
	for _, p := range v.Analysis.PossiblyUsed {
		fmt.Fprintf(w, "? %s\n", p)
	}
	return nil
}

func (v *UnusedView) RenderMarkdown(w io.Writer) error {
	a := v.Analysis
	fmt.Fprintf(w, "# Unused Assets\n\n")
	fmt.Fprintf(w, "Found **%d** unused assets (%s) out of %d scanned against %d source files.\n\n",
		a.Summary.TotalUnused, FormatBytes(a.Summary.UnusedBytes), a.Summary.TotalAssets, a.Summary.TotalSources)

	if len(a.Unused) > 0 {
		table := &Table{Headers: []string{"Asset", "Size"}}
		for _, u := range a.Unused {
			table.Rows = append(table.Rows, []string{"`" + u.Path + "`", FormatBytes(u.Size)})
		}
		if err := table.RenderMarkdown(w); err != nil {
			return err
		}
	}

	if len(a.PossiblyUsed) > 0 {
		fmt.Fprintf(w, "## Possibly Used\n\n")
		for _, p := range a.PossiblyUsed {
			fmt.Fprintf(w, "- `%s`\n", p)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// FormatBytes renders a byte count using binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func rootLabel(root string) string {
	if root == "" {
		return "."
	}
	return filepath.Base(root)
}
