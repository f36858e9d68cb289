// Package dynpath detects asset paths that are assembled at runtime.
//
// Source files often build asset URLs from template literals or string
// concatenation (`/img/${name}.png`, '/icons/' + id + '.svg'). The exact
// file cannot be known without executing the code, but the static directory
// prefix can. Detect extracts that prefix so callers can treat every asset
// below it as reachable.
package dynpath

import (
	"regexp"
	"strings"
)

// Wildcard replaces the dynamic portion of a path in Pattern.Pattern.
const Wildcard = "*"

// Kind identifies the syntactic shape a pattern was extracted from.
type Kind string

const (
	KindTemplate      Kind = "template"
	KindConcatenation Kind = "concatenation"
)

// Pattern is a dynamically constructed path found in a source file.
type Pattern struct {
	// BaseDir is the static directory prefix preceding the first dynamic part.
	BaseDir string `json:"base_dir" toon:"base_dir"`
	// Pattern is the static prefix, a wildcard, then the static suffix.
	Pattern string `json:"pattern" toon:"pattern"`
	Kind    Kind   `json:"kind" toon:"kind"`
}

var (
	// templateRe matches a backtick template whose first interpolation is
	// preceded by static text. Group 1 is the text before the first ${...},
	// group 2 everything after it up to the closing backtick.
	templateRe = regexp.MustCompile("`([^`$]*)\\$\\{[^}`]*\\}([^`]*)`")

	// interpolationRe matches a single ${...} marker.
	interpolationRe = regexp.MustCompile(`\$\{[^}]*\}`)

	// concatRe matches 'literal' + expr [+ 'literal']. Groups 1/2 hold the
	// leading literal (single/double quoted), groups 3/4 the trailing one.
	// The expression must start with a non-space, non-quote character so two
	// joined literals are not mistaken for a dynamic path.
	concatRe = regexp.MustCompile(`(?:'([^'\n]*)'|"([^"\n]*)")\s*\+\s*[^'"\s;+][^'"\n;+]*(?:\s*\+\s*(?:'([^'\n]*)'|"([^"\n]*)"))?`)
)

// Detect scans content for interpolated-template and string-concatenation
// paths. Only matches whose static prefix carries a directory component are
// returned; duplicates within content are dropped, source order is kept.
func Detect(content string) []Pattern {
	var patterns []Pattern
	seen := make(map[Pattern]struct{})

	add := func(p Pattern, ok bool) {
		if !ok {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}

	if strings.Contains(content, "${") {
		for _, m := range templateRe.FindAllStringSubmatch(content, -1) {
			after := interpolationRe.ReplaceAllString(m[2], Wildcard)
			add(build(m[1], after, KindTemplate))
		}
	}

	if strings.Contains(content, "+") {
		for _, m := range concatRe.FindAllStringSubmatch(content, -1) {
			before := firstNonEmpty(m[1], m[2])
			after := firstNonEmpty(m[3], m[4])
			add(build(before, after, KindConcatenation))
		}
	}

	return patterns
}

// build derives a Pattern from the static text around a dynamic part.
func build(before, after string, kind Kind) (Pattern, bool) {
	idx := strings.LastIndex(before, "/")
	if idx <= 0 {
		return Pattern{}, false
	}
	baseDir := before[:idx]
	if strings.Trim(baseDir, "./~@") == "" {
		return Pattern{}, false
	}
	return Pattern{
		BaseDir: baseDir,
		Pattern: before + Wildcard + after,
		Kind:    kind,
	}, true
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
