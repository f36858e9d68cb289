package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/orphan/internal/testutil"
	"github.com/panbanda/orphan/pkg/config"
)

func relPaths(t *testing.T, root string, paths []string) map[string]bool {
	t.Helper()
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("Rel(%s) error: %v", p, err)
		}
		out[filepath.ToSlash(rel)] = true
	}
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	if s.config == nil {
		t.Fatal("scanner.config should not be nil when passing nil")
	}

	cfg := config.DefaultConfig()
	if NewScanner(cfg).config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScanDir_ClassifiesFiles(t *testing.T) {
	root := testutil.NewProject(t, map[string]string{
		"index.html":            "<html>",
		"src/app.tsx":           "export {}",
		"src/styles/site.scss":  "body{}",
		"public/logo.png":       "PNG",
		"public/icons/menu.svg": "SVG",
		"favicon.ico":           "ICO",
		"README.md":             "# docs",
		"photo.webp":            "WEBP",
	})

	files, err := NewScanner(nil).ScanDir(root, config.DefaultAssetPattern, config.DefaultSourcePattern)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	assets := relPaths(t, files.Root, files.Assets)
	for _, want := range []string{"public/logo.png", "public/icons/menu.svg", "favicon.ico"} {
		if !assets[want] {
			t.Errorf("asset %s not found in %v", want, assets)
		}
	}
	if len(assets) != 3 {
		t.Errorf("found %d assets, want 3", len(assets))
	}

	sources := relPaths(t, files.Root, files.Sources)
	for _, want := range []string{"index.html", "src/app.tsx", "src/styles/site.scss"} {
		if !sources[want] {
			t.Errorf("source %s not found in %v", want, sources)
		}
	}
	if len(sources) != 3 {
		t.Errorf("found %d sources, want 3", len(sources))
	}

	for i := 1; i < len(files.Assets); i++ {
		if files.Assets[i-1] > files.Assets[i] {
			t.Errorf("assets not sorted: %v", files.Assets)
		}
	}
}

func TestScanDir_CustomAssetPattern(t *testing.T) {
	root := testutil.NewProject(t, map[string]string{
		"img/a.png":  "",
		"img/b.webp": "",
		"c.webp":     "",
	})

	files, err := NewScanner(nil).ScanDir(root, "img/*.webp", config.DefaultSourcePattern)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	assets := relPaths(t, files.Root, files.Assets)
	if len(assets) != 1 || !assets["img/b.webp"] {
		t.Errorf("assets = %v, want only img/b.webp", assets)
	}
}

func TestScanDir_ExcludesDirectories(t *testing.T) {
	root := testutil.NewProject(t, map[string]string{
		"node_modules/pkg/logo.png": "",
		"node_modules/pkg/index.js": "",
		".git/objects/x.png":        "",
		"src/logo.png":              "",
	})

	files, err := NewScanner(nil).ScanDir(root, config.DefaultAssetPattern, config.DefaultSourcePattern)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(files.Assets) != 1 || len(files.Sources) != 0 {
		t.Errorf("assets=%v sources=%v", files.Assets, files.Sources)
	}
}

func TestScanDir_ExcludesPatterns(t *testing.T) {
	root := testutil.NewProject(t, map[string]string{
		"dist/bundle.min.js": "",
		"src/app.min.js":     "",
		"src/app.js":         "",
		"fixtures/a.png":     "",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = []string{"*.min.js", "fixtures/**"}

	files, err := NewScanner(cfg).ScanDir(root, config.DefaultAssetPattern, config.DefaultSourcePattern)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	sources := relPaths(t, files.Root, files.Sources)
	if len(sources) != 1 || !sources["src/app.js"] {
		t.Errorf("sources = %v, want only src/app.js", sources)
	}
	if len(files.Assets) != 0 {
		t.Errorf("assets = %v, want none", files.Assets)
	}
}

func TestScanDir_Gitignore(t *testing.T) {
	files := map[string]string{
		".gitignore":          "build/\n*.generated.css\n",
		"build/out.png":       "",
		"build/out.js":        "",
		"src/app.css":         "",
		"src/x.generated.css": "",
		"src/logo.png":        "",
	}

	t.Run("enabled", func(t *testing.T) {
		root := testutil.NewProject(t, files)
		result, err := NewScanner(nil).ScanDir(root, config.DefaultAssetPattern, config.DefaultSourcePattern)
		if err != nil {
			t.Fatalf("ScanDir() error: %v", err)
		}
		if len(result.Assets) != 1 {
			t.Errorf("assets = %v, want only src/logo.png", result.Assets)
		}
		sources := relPaths(t, result.Root, result.Sources)
		if len(sources) != 1 || !sources["src/app.css"] {
			t.Errorf("sources = %v, want only src/app.css", sources)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		root := testutil.NewProject(t, files)
		cfg := config.DefaultConfig()
		cfg.Exclude.Gitignore = false
		result, err := NewScanner(cfg).ScanDir(root, config.DefaultAssetPattern, config.DefaultSourcePattern)
		if err != nil {
			t.Fatalf("ScanDir() error: %v", err)
		}
		if len(result.Assets) != 2 || len(result.Sources) != 3 {
			t.Errorf("assets=%d sources=%d, want 2 and 3", len(result.Assets), len(result.Sources))
		}
	})
}

func TestScanDir_Errors(t *testing.T) {
	s := NewScanner(nil)

	if _, err := s.ScanDir(filepath.Join(t.TempDir(), "missing"), config.DefaultAssetPattern, config.DefaultSourcePattern); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	testutil.WriteFile(t, file, "x")
	if _, err := s.ScanDir(file, config.DefaultAssetPattern, config.DefaultSourcePattern); err == nil {
		t.Error("expected error when root is a file")
	}

	if _, err := s.ScanDir(t.TempDir(), "**/*.{png", config.DefaultSourcePattern); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestScanDir_EmptyDirectory(t *testing.T) {
	files, err := NewScanner(nil).ScanDir(t.TempDir(), config.DefaultAssetPattern, config.DefaultSourcePattern)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(files.Assets) != 0 || len(files.Sources) != 0 {
		t.Errorf("expected no files, got %+v", files)
	}
}

func TestValidatePattern(t *testing.T) {
	for _, p := range []string{"**/*.png", "**/*.{png,jpg}", "img/[a-z]*.svg"} {
		if err := ValidatePattern(p); err != nil {
			t.Errorf("ValidatePattern(%q) error: %v", p, err)
		}
	}
	for _, p := range []string{"", "**/*.{png", "[z"} {
		if err := ValidatePattern(p); err == nil {
			t.Errorf("ValidatePattern(%q) should fail", p)
		}
	}
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		path, root string
		want       bool
	}{
		{"/project/img/a.png", "/project", true},
		{"/project", "/project", true},
		{"/project2/a.png", "/project", false},
		{"/other/a.png", "/project", false},
	}
	for _, tt := range tests {
		if got := isWithinRoot(tt.path, tt.root); got != tt.want {
			t.Errorf("isWithinRoot(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
		}
	}
}

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := findGitRoot(sub); got != root {
		t.Errorf("findGitRoot() = %q, want %q", got, root)
	}
}

func TestScanDir_Symlinks(t *testing.T) {
	root := testutil.NewProject(t, map[string]string{"img/real.png": ""})
	outside := testutil.NewProject(t, map[string]string{"secret.png": ""})

	if err := os.Symlink(filepath.Join(root, "img", "real.png"), filepath.Join(root, "img", "alias.png")); err != nil {
		t.Skip("Symlinks not supported on this system")
	}
	_ = os.Symlink(filepath.Join(outside, "secret.png"), filepath.Join(root, "img", "escape.png"))
	_ = os.Symlink("/nonexistent/file.png", filepath.Join(root, "img", "dangling.png"))

	files, err := NewScanner(nil).ScanDir(root, config.DefaultAssetPattern, config.DefaultSourcePattern)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	assets := relPaths(t, files.Root, files.Assets)
	if !assets["img/real.png"] || !assets["img/alias.png"] {
		t.Errorf("assets = %v, want real.png and alias.png", assets)
	}
	if assets["img/escape.png"] || assets["img/dangling.png"] {
		t.Errorf("symlinks escaping the root must be skipped: %v", assets)
	}
}
