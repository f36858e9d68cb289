package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"

	"github.com/panbanda/orphan/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validates an orphan configuration file against the schema and checks
patterns, worker counts, format and log level.

Examples:
  orphan config validate                  # Validates default config locations
  orphan config validate -c orphan.toml   # Validates specific file
  orphan config validate -c .orphan/orphan.yaml`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Shows the merged configuration from defaults and config file as TOML.

Examples:
  orphan config show                 # Show effective config
  orphan config show -c orphan.toml  # Show config from specific file`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	// Config subcommands report load errors themselves.
	configCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil }
}

func configLoadOptions() []config.LoadOption {
	if cfgFile == "" {
		return nil
	}
	return []config.LoadOption{config.WithPath(cfgFile)}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	result, err := config.LoadConfig(configLoadOptions()...)
	if err != nil {
		color.New(color.FgRed).Fprintln(out, "Configuration validation failed:")
		fmt.Fprintf(out, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.New(color.FgGreen).Fprintf(out, "Configuration valid: %s\n", result.Source)
	} else {
		color.New(color.FgYellow).Fprintln(out, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	result, err := config.LoadConfig(configLoadOptions()...)
	if err != nil {
		return err
	}

	if result.Source != "" {
		fmt.Fprintf(out, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(out, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(out, string(content))
	return nil
}
