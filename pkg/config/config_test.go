package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scan.Dir != "." {
		t.Errorf("Scan.Dir = %q, want .", cfg.Scan.Dir)
	}
	if cfg.Scan.AssetPattern != DefaultAssetPattern {
		t.Errorf("Scan.AssetPattern = %q", cfg.Scan.AssetPattern)
	}
	if cfg.Scan.SourcePattern != DefaultSourcePattern {
		t.Errorf("Scan.SourcePattern = %q", cfg.Scan.SourcePattern)
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Dirs[0] != "node_modules" {
		t.Errorf("Exclude.Dirs = %v", cfg.Exclude.Dirs)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache should be opt-in")
	}
	if cfg.Output.File != "unused-assets.txt" {
		t.Errorf("Output.File = %q", cfg.Output.File)
	}
	if cfg.Output.Format != "text" || !cfg.Output.Color {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Formats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "orphan.toml", `
[scan]
asset_pattern = "**/*.webp"

[match]
strict = true
workers = 4

[exclude]
dirs = ["vendor"]
`},
		{"yaml", "orphan.yaml", `
scan:
  asset_pattern: "**/*.webp"
match:
  strict: true
  workers: 4
exclude:
  dirs: [vendor]
`},
		{"json", "orphan.json", `{
  "scan": {"asset_pattern": "**/*.webp"},
  "match": {"strict": true, "workers": 4},
  "exclude": {"dirs": ["vendor"]}
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, dir, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.Scan.AssetPattern != "**/*.webp" {
				t.Errorf("AssetPattern = %q", cfg.Scan.AssetPattern)
			}
			if !cfg.Match.Strict || cfg.Match.Workers != 4 {
				t.Errorf("Match = %+v", cfg.Match)
			}
			if len(cfg.Exclude.Dirs) != 1 || cfg.Exclude.Dirs[0] != "vendor" {
				t.Errorf("Exclude.Dirs = %v", cfg.Exclude.Dirs)
			}
			// Unset keys keep their defaults.
			if cfg.Scan.SourcePattern != DefaultSourcePattern {
				t.Errorf("SourcePattern = %q, want default", cfg.Scan.SourcePattern)
			}
			if cfg.Output.File != DefaultOutputFile {
				t.Errorf("Output.File = %q, want default", cfg.Output.File)
			}
		})
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown section", "[assets]\nx = 1\n"},
		{"unknown key", "[match]\nfuzzy = true\n"},
		{"wrong type", "[match]\nworkers = \"many\"\n"},
		{"negative workers", "[match]\nworkers = -1\n"},
		{"unknown format", "[output]\nformat = \"xml\"\n"},
		{"unknown level", "[log]\nlevel = \"loud\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "orphan.toml", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", err)
			}
		})
	}
}

func TestLoad_InvalidGlob(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "orphan.toml", "[scan]\nasset_pattern = \"**/*.{png\"\n")

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "scan.asset_pattern") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_Search(t *testing.T) {
	dir := t.TempDir()

	result, err := LoadConfig(WithSearchDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if result.Source != "" {
		t.Errorf("Source = %q, want empty for defaults", result.Source)
	}

	path := writeConfig(t, dir, ".orphan/orphan.yml", "output:\n  tree: true\n")
	result, err = LoadConfig(WithSearchDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if result.Source != path {
		t.Errorf("Source = %q, want %q", result.Source, path)
	}
	if !result.Config.Output.Tree {
		t.Error("Output.Tree should be loaded from the found file")
	}

	// A root-level file wins over .orphan/.
	rootPath := writeConfig(t, dir, ".orphan.json", `{"log": {"level": "debug"}}`)
	result, err = LoadConfig(WithSearchDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if result.Source != rootPath || result.Config.Log.Level != "debug" {
		t.Errorf("got %q level %q", result.Source, result.Config.Log.Level)
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "custom.toml", "[cache]\nenabled = true\nttl = 2\n")

	result, err := LoadConfig(WithPath(path))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if result.Source != path {
		t.Errorf("Source = %q", result.Source)
	}
	if !result.Config.Cache.Enabled || result.Config.Cache.TTL != 2 {
		t.Errorf("Cache = %+v", result.Config.Cache)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Match.Workers = -2
	cfg.Output.Format = "html"
	cfg.Exclude.Patterns = []string{"[z-a"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"match.workers", "output.format", "exclude.patterns"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}
