package refs

import (
	"regexp"
	"strings"
)

// Strategy names the check that produced a positive match.
type Strategy string

// Strategies in evaluation order. The first one that matches decides the
// reference token; every one that matches is counted.
const (
	StrategyFilename     Strategy = "filename"
	StrategyRelativePath Strategy = "relative_path"
	StrategyCSSURL       Strategy = "css_url"
	StrategyImport       Strategy = "import"
	StrategyMarkup       Strategy = "markup"
	StrategyBackground   Strategy = "background"
	StrategyDynamicDir   Strategy = "dynamic_dir"
)

// Strategies lists every strategy in evaluation order.
var Strategies = []Strategy{
	StrategyFilename,
	StrategyRelativePath,
	StrategyCSSURL,
	StrategyImport,
	StrategyMarkup,
	StrategyBackground,
	StrategyDynamicDir,
}

// markupAttrs are the attributes that load a resource in HTML, SVG and Vue/JSX templates.
const markupAttrs = `(?:src|srcset|data-src|href|xlink:href|poster)`

// checker holds the compiled checks for one asset.
type checker struct {
	asset      Asset
	strict     bool
	url        *regexp.Regexp
	imp        *regexp.Regexp
	markup     *regexp.Regexp
	background *regexp.Regexp
}

func newChecker(a Asset, strict bool) *checker {
	name := regexp.QuoteMeta(a.Name)

	// lead is the run of characters allowed between an opening delimiter and
	// the filename. In strict mode the name must start a path segment.
	urlLead, quotedLead, attrLead := `[^)]*`, `[^'"\n]*`, `[^"']*`
	tail := ``
	if strict {
		urlLead = `(?:[^)'"]*/)?`
		quotedLead = `(?:[^'"\n]*/)?`
		attrLead = `(?:[^"']*[/\s,])?`
		tail = `(?:[^A-Za-z0-9_-]|$)`
	}

	return &checker{
		asset:      a,
		strict:     strict,
		url:        regexp.MustCompile(`url\(\s*['"]?` + urlLead + name + `['"]?\s*\)`),
		imp:        regexp.MustCompile(`(?:import|require)\s*\(\s*['"]` + quotedLead + name + `['"]\s*\)`),
		markup:     regexp.MustCompile(`<[A-Za-z][^>]*?\b` + markupAttrs + `\s*=\s*["']` + attrLead + name + tail),
		background: regexp.MustCompile(`background(?:-image)?\s*:[^;{}]*url\(\s*['"]?` + urlLead + name + tail),
	}
}

// hits runs steps a through f against content and returns every strategy
// that matches, in evaluation order.
func (c *checker) hits(content string) []Strategy {
	// Every static strategy needs the filename somewhere in the text.
	if !strings.Contains(content, c.asset.Name) {
		return nil
	}

	var hits []Strategy
	if c.contains(content, c.asset.Name) {
		hits = append(hits, StrategyFilename)
	}
	if c.contains(content, c.asset.RelPath) ||
		(c.asset.NormalizedPath != c.asset.RelPath && c.contains(content, c.asset.NormalizedPath)) {
		hits = append(hits, StrategyRelativePath)
	}
	for _, rc := range []struct {
		strategy Strategy
		re       *regexp.Regexp
	}{
		{StrategyCSSURL, c.url},
		{StrategyImport, c.imp},
		{StrategyMarkup, c.markup},
		{StrategyBackground, c.background},
	} {
		if rc.re.MatchString(content) {
			hits = append(hits, rc.strategy)
		}
	}
	return hits
}

// token is the reference recorded for a hit of strategy s.
func (c *checker) token(s Strategy) string {
	if s == StrategyRelativePath {
		return c.asset.RelPath
	}
	return c.asset.Name
}

func (c *checker) contains(content, needle string) bool {
	if !c.strict {
		return strings.Contains(content, needle)
	}
	return containsBounded(content, needle)
}

// containsBounded reports whether needle occurs in content delimited on the
// left by a path, quote or expression boundary and on the right by anything
// that cannot continue a filename.
func containsBounded(content, needle string) bool {
	if needle == "" {
		return false
	}
	for offset := 0; ; {
		i := strings.Index(content[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(needle)
		if (start == 0 || isLeftBoundary(content[start-1])) &&
			(end == len(content) || !isNameChar(content[end])) {
			return true
		}
		offset = start + 1
	}
}

func isLeftBoundary(b byte) bool {
	switch b {
	case '/', '\\', '\'', '"', '`', '(', '=', ',', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isNameChar(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}
