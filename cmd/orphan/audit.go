package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/panbanda/orphan/internal/logger"
	"github.com/panbanda/orphan/internal/output"
	"github.com/panbanda/orphan/internal/progress"
	"github.com/panbanda/orphan/internal/remote"
	"github.com/panbanda/orphan/internal/report"
	"github.com/panbanda/orphan/internal/service/analysis"
	scannerSvc "github.com/panbanda/orphan/internal/service/scanner"
	"github.com/panbanda/orphan/pkg/analyzer/unused"
	"github.com/panbanda/orphan/pkg/config"
)

func runAudit(cmd *cobra.Command, args []string) error {
	_, err := audit(cmd.Context(), appConfig, cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet)
	return err
}

// audit scans cfg.Scan.Dir, prints the result in the configured format and
// writes the report file.
func audit(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, hideProgress bool) (*unused.Analysis, error) {
	dir, cleanup, err := resolveDir(ctx, cfg.Scan.Dir, stderr)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var spinner *progress.Bar
	if !hideProgress {
		spinner = progress.NewSpinner("Scanning files...", progress.WithWriter(stderr))
	}
	scan, err := scannerSvc.New(scannerSvc.WithConfig(cfg)).Scan(dir, cfg.Scan.AssetPattern)
	if spinner != nil {
		if err != nil {
			spinner.Fail(err)
		} else {
			spinner.Done()
		}
	}
	if err != nil {
		return nil, err
	}
	log.Debugf("found %d assets and %d sources under %s", len(scan.Assets), len(scan.Sources), scan.Root)

	opts := analysis.OptionsFromConfig(cfg)
	var bar *progress.Bar
	if !hideProgress && len(scan.Sources) > 0 {
		bar = progress.NewBar("Matching references...", len(scan.Sources), progress.WithWriter(stderr))
		opts.OnProgress = bar.Update
	}

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(log))
	result, err := svc.FindUnusedAssets(ctx, scan, opts)
	if bar != nil {
		bar.Done()
	}
	if err != nil {
		return nil, err
	}

	format := output.ParseFormat(cfg.Output.Format)
	formatter := output.NewFormatter(format, stdout, useColor(cfg, stdout))
	if err := formatter.Output(output.NewUnusedView(result, cfg.Output.Tree)); err != nil {
		return nil, fmt.Errorf("render output: %w", err)
	}

	if cfg.Output.File != "" {
		if err := report.Write(cfg.Output.File, result, time.Now()); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		if format == output.FormatText {
			formatter.Success("Results saved to %s", cfg.Output.File)
		} else {
			log.Infof("Results saved to %s", cfg.Output.File)
		}
	}
	return result, nil
}

// resolveDir clones dir when it names a remote repository. The returned
// cleanup func is always safe to call.
func resolveDir(ctx context.Context, dir string, stderr io.Writer) (string, func(), error) {
	noop := func() {}
	src, err := remote.Parse(dir)
	if err != nil {
		return "", noop, err
	}
	if src == nil {
		return dir, noop, nil
	}

	log.Infof("Cloning %s", src.URL)
	var progressOut io.Writer
	if log.Enabled(logger.LevelDebug) {
		progressOut = stderr
	}
	if err := src.Clone(ctx, progressOut, true); err != nil {
		return "", noop, err
	}
	return src.CloneDir, func() {
		if err := src.Cleanup(); err != nil {
			log.Warnf("remove clone %s: %v", src.CloneDir, err)
		}
	}, nil
}

func useColor(cfg *config.Config, w io.Writer) bool {
	if !cfg.Output.Color || color.NoColor {
		return false
	}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
