package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/panbanda/orphan/internal/remote"
	"github.com/panbanda/orphan/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the audit when assets or sources change",
	Long: `Runs the audit once, then watches the project and runs it again after
each settled batch of changes to asset or source files.

Examples:
  orphan watch                       # watch the current directory
  orphan watch -d web --debounce 1s  # slower debounce for large saves`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	addAuditFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before re-running")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if src, err := remote.Parse(cfg.Scan.Dir); err != nil {
		return err
	} else if src != nil {
		return errors.New("watch mode needs a local directory")
	}

	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if _, err := audit(cmd.Context(), cfg, stdout, stderr, quiet); err != nil {
		return err
	}

	w, err := watch.NewWatcher(cfg.Scan.Dir, cfg, debounce, cfg.Scan.AssetPattern)
	if err != nil {
		return err
	}
	defer w.Stop()
	w.SetOutput(stdout)
	w.SetCallback(func(changed []string) {
		started := time.Now()
		if _, err := audit(cmd.Context(), cfg, stdout, stderr, true); err != nil {
			log.Errorf("audit failed: %v", err)
			return
		}
		log.Debugf("audit of %d changes took %s", len(changed), time.Since(started).Round(time.Millisecond))
	})

	err = w.Start(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
