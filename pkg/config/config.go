// Package config loads orphan settings from TOML, YAML or JSON files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// DefaultAssetPattern matches common image and icon files.
const DefaultAssetPattern = "**/*.{png,jpg,jpeg,gif,svg,ico}"

// DefaultSourcePattern matches the files searched for references.
const DefaultSourcePattern = "**/*.{js,jsx,ts,tsx,vue,html,css,scss,sass,less}"

// DefaultOutputFile is where the report is written when none is given.
const DefaultOutputFile = "unused-assets.txt"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/orphan/config.schema.json"

// Formats lists the accepted console output formats.
var Formats = []string{"text", "json", "markdown", "toon"}

// LogLevels lists the accepted log levels.
var LogLevels = []string{"trace", "debug", "info", "warn", "error"}

// Config holds all configuration options for orphan.
type Config struct {
	Scan    ScanConfig    `koanf:"scan" toml:"scan"`
	Match   MatchConfig   `koanf:"match" toml:"match"`
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`
	Cache   CacheConfig   `koanf:"cache" toml:"cache"`
	Output  OutputConfig  `koanf:"output" toml:"output"`
	Log     LogConfig     `koanf:"log" toml:"log"`
}

// ScanConfig selects what is analyzed.
type ScanConfig struct {
	Dir           string `koanf:"dir" toml:"dir"`
	AssetPattern  string `koanf:"asset_pattern" toml:"asset_pattern"`
	SourcePattern string `koanf:"source_pattern" toml:"source_pattern"`
}

// MatchConfig tunes the reference matcher.
type MatchConfig struct {
	Strict        bool  `koanf:"strict" toml:"strict"`
	SinglePass    bool  `koanf:"single_pass" toml:"single_pass"`
	ReportDynamic bool  `koanf:"report_dynamic" toml:"report_dynamic"`
	Workers       int   `koanf:"workers" toml:"workers"`             // 0 = 2x NumCPU
	MaxFileSize   int64 `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = unlimited
}

// ExcludeConfig defines paths that are never scanned.
type ExcludeConfig struct {
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls the per-file result cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls the report file and console rendering.
type OutputConfig struct {
	File   string `koanf:"file" toml:"file"`
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
	Tree   bool   `koanf:"tree" toml:"tree"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `koanf:"level" toml:"level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Dir:           ".",
			AssetPattern:  DefaultAssetPattern,
			SourcePattern: DefaultSourcePattern,
		},
		Exclude: ExcludeConfig{
			Dirs:      []string{"node_modules", ".git"},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Dir: ".orphan/cache",
			TTL: 24,
		},
		Output: OutputConfig{
			File:   DefaultOutputFile,
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path      string
	searchDir string
}

// WithPath loads the given file instead of searching the default locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDir searches for config files relative to dir instead of the
// working directory.
func WithSearchDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.searchDir = dir
	}
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is the path of the loaded file, empty when defaults were used.
	Source string
}

// LoadConfig loads, schema-checks and validates configuration. Without
// WithPath it searches the standard locations and falls back to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{searchDir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = findConfig(o.searchDir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// LoadOrDefault loads config from the standard locations or returns defaults.
func LoadOrDefault() (*Config, error) {
	result, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// Load loads configuration from a file, applying defaults for missing keys.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := validateSchema(k.Raw()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	// Lists replace the defaults instead of merging into them index by index.
	if k.Exists("exclude.dirs") {
		cfg.Exclude.Dirs = k.Strings("exclude.dirs")
	}
	if k.Exists("exclude.patterns") {
		cfg.Exclude.Patterns = k.Strings("exclude.patterns")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func findConfig(dir string) string {
	names := []string{
		"orphan.toml",
		"orphan.yaml",
		"orphan.yml",
		"orphan.json",
		".orphan.toml",
		".orphan.yaml",
		".orphan.yml",
		".orphan.json",
	}
	for _, sub := range []string{".", ".orphan"} {
		for _, name := range names {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// validateSchema checks the raw document against the embedded JSON Schema.
func validateSchema(raw map[string]any) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return err
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// Round-trip through JSON so parser-specific types become plain JSON values.
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	var errs []error

	for name, pattern := range map[string]string{
		"scan.asset_pattern":  c.Scan.AssetPattern,
		"scan.source_pattern": c.Scan.SourcePattern,
	} {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("%s: invalid glob %q", name, pattern))
		}
	}
	for _, pattern := range c.Exclude.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("exclude.patterns: invalid glob %q", pattern))
		}
	}
	if c.Match.Workers < 0 {
		errs = append(errs, fmt.Errorf("match.workers must be >= 0, got %d", c.Match.Workers))
	}
	if c.Match.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("match.max_file_size must be >= 0, got %d", c.Match.MaxFileSize))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be >= 0, got %d", c.Cache.TTL))
	}
	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	if !slices.Contains(LogLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	if len(errs) == 0 {
		return nil
	}
	slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
