package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/panbanda/orphan/internal/logger"
	"github.com/panbanda/orphan/internal/output"
	"github.com/panbanda/orphan/pkg/config"
)

var (
	cfgFile      string
	verbose      bool
	logLevel     string
	quiet        bool
	pprofPrefix  string
	pprofCPUFile *os.File

	// appConfig and log are set in PersistentPreRunE for every command.
	appConfig *config.Config
	log       *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orphan",
	Short: "Find static assets that nothing references",
	Long: `Orphan scans a project for static assets (images, icons, and other files
matched by a glob) and reports the ones no source file refers to.

References are found in plain text, CSS url(), import()/require() calls,
markup src/href attributes, inline background styles, and paths built from
template literals or string concatenation.

Examples:
  orphan                                  # audit the current directory
  orphan -d web -p "**/*.{png,svg}"       # custom root and asset glob
  orphan -o report.json -f json           # JSON report file and console output
  orphan -d twbs/icons@main --tree        # audit a GitHub repository`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if pprofPrefix != "" {
			f, err := os.Create(pprofPrefix + ".cpu.pprof")
			if err != nil {
				return fmt.Errorf("failed to create CPU profile: %w", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				return fmt.Errorf("failed to start CPU profile: %w", err)
			}
			pprofCPUFile = f
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		appConfig = cfg

		level, ok := logger.ParseLevel(cfg.Log.Level)
		if !ok {
			return fmt.Errorf("unknown log level %q", cfg.Log.Level)
		}
		log = logger.New(cmd.ErrOrStderr(), level)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pprofPrefix == "" {
			return nil
		}
		pprof.StopCPUProfile()
		if pprofCPUFile != nil {
			pprofCPUFile.Close()
			pprofCPUFile = nil
			color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
		}

		memFile, err := os.Create(pprofPrefix + ".mem.pprof")
		if err != nil {
			return fmt.Errorf("failed to create memory profile: %w", err)
		}
		defer memFile.Close()

		runtime.GC()
		if err := pprof.WriteHeapProfile(memFile); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
		color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
		return nil
	},
	RunE: runAudit,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	pf.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	pf.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Hide progress bars")
	pf.StringVar(&pprofPrefix, "pprof", "", "Enable pprof profiling (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)")

	addAuditFlags(rootCmd)
}

// addAuditFlags registers the flags shared by the audit and watch commands.
func addAuditFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("dir", "d", ".", "Directory to scan, or owner/repo[@ref] to clone")
	f.StringP("pattern", "p", config.DefaultAssetPattern, "Glob pattern for asset files")
	f.StringP("output", "o", config.DefaultOutputFile, "Report file (.txt for text, anything else for JSON)")
	f.StringP("format", "f", "text", "Console format: text, json, markdown, toon")
	f.Bool("strict", false, "Require path boundaries around matched filenames")
	f.Bool("single-pass", false, "Apply dynamic directories file by file as sources are read")
	f.Bool("report-dynamic", false, "List assets kept only through dynamic directories")
	f.Bool("tree", false, "Show unused assets as a directory tree")
	f.Bool("cache", false, "Reuse per-file results from the scan cache")
	f.Int("workers", 0, "Parallel workers (0 = 2x CPU count)")
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var opts []config.LoadOption
	if cfgFile != "" {
		opts = append(opts, config.WithPath(cfgFile))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with flags the user actually passed. Flags left
// at their defaults never mask values from the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Lookup(name) != nil && f.Changed(name) {
			err = apply()
		}
	}

	set("dir", func() (e error) { cfg.Scan.Dir, e = f.GetString("dir"); return })
	set("pattern", func() (e error) { cfg.Scan.AssetPattern, e = f.GetString("pattern"); return })
	set("output", func() (e error) { cfg.Output.File, e = f.GetString("output"); return })
	set("format", func() error {
		v, e := f.GetString("format")
		if v == "md" {
			v = string(output.FormatMarkdown)
		}
		cfg.Output.Format = v
		return e
	})
	set("strict", func() (e error) { cfg.Match.Strict, e = f.GetBool("strict"); return })
	set("single-pass", func() (e error) { cfg.Match.SinglePass, e = f.GetBool("single-pass"); return })
	set("report-dynamic", func() (e error) { cfg.Match.ReportDynamic, e = f.GetBool("report-dynamic"); return })
	set("tree", func() (e error) { cfg.Output.Tree, e = f.GetBool("tree"); return })
	set("cache", func() (e error) { cfg.Cache.Enabled, e = f.GetBool("cache"); return })
	set("workers", func() (e error) { cfg.Match.Workers, e = f.GetInt("workers"); return })
	if err != nil {
		return err
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return nil
}
