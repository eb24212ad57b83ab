package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"xhscrawl/pkg/auth"
	"xhscrawl/pkg/config"
	"xhscrawl/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xhscrawl configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (XHSCRAWL_*)
  - .env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write the default configuration as YAML to the --config path, or to
$XDG_CONFIG_HOME/xhscrawl/config.yaml when none is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("configuration file already exists: %s (use --force to replace it)", path)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		ui.PrintSuccess("Configuration file created: " + path)
		fmt.Fprintln(ui.Out, "\nNext steps:")
		fmt.Fprintln(ui.Out, "1. Run 'xhscrawl auth login' to save a session")
		fmt.Fprintln(ui.Out, "2. Run 'xhscrawl config validate' after editing the file")
		fmt.Fprintln(ui.Out, "3. Start with 'xhscrawl notes <user-url>'")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Show the configuration after flags, environment and files were applied.
Cookie values are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, commandFlags(cmd))
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		display := *cfg
		if display.XHS.Cookies != "" {
			display.XHS.Cookies = auth.SanitizeAccount(&auth.Account{Cookies: cfg.XHS.Cookies}).Cookies
		}

		data, err := yaml.Marshal(&display)
		if err != nil {
			return fmt.Errorf("failed to format configuration: %w", err)
		}
		ui.PrintHighlight("Current Configuration")
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, commandFlags(cmd))
		if err != nil {
			ui.PrintError("Configuration validation failed", err)
			return errCrawlFailed
		}

		var warnings []string
		if cfg.XHS.Cookies == "" {
			warnings = append(warnings, "no cookies configured, a saved session or a guest session will be used")
		} else if err := (&auth.Account{Name: "config", Cookies: cfg.XHS.Cookies}).Validate(); err != nil {
			warnings = append(warnings, err.Error())
		}
		if cfg.Logging.File != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
				warnings = append(warnings, fmt.Sprintf("cannot create log directory: %v", err))
			}
		}
		if len(warnings) > 0 {
			ui.PrintWarning("Configuration warnings:")
			for _, w := range warnings {
				fmt.Fprintf(ui.Out, "  - %s\n", w)
			}
			fmt.Fprintln(ui.Out)
		}

		ui.PrintSuccess("Configuration is valid")
		fmt.Fprintln(ui.Out, "\nConfiguration summary:")
		fmt.Fprintf(ui.Out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
		fmt.Fprintf(ui.Out, "  Formats: %s\n", strings.Join(cfg.Output.Formats, ", "))
		fmt.Fprintf(ui.Out, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
		fmt.Fprintf(ui.Out, "  Page delay: %s (%s)\n", cfg.RateLimit.PageDelay, cfg.RateLimit.DelayStrategy)
		fmt.Fprintf(ui.Out, "  Log level: %s\n", cfg.Logging.Level)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default configuration file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(ui.Out, config.DefaultConfigPath())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd, configPathCmd)

	configInitCmd.Flags().BoolVarP(&forceInit, "force", "F", false, "replace an existing file")
}
