package main

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/panbanda/orphan/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Scan cache commands",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached per-file results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := appConfig.Cache.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(appConfig.Scan.Dir, dir)
		}
		c, err := cache.New(dir, 0, "")
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Cleared %s\n", dir)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringP("dir", "d", ".", "Project directory the cache belongs to")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
