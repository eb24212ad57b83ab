package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"xhscrawl/pkg/auth"
	"xhscrawl/pkg/config"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/scraper"
	"xhscrawl/pkg/storage"
	"xhscrawl/pkg/ui"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	accountName   string
	outputDir     string
	formats       []string
	cookies       string
	proxy         string
	pageDelay     time.Duration
	delayStrategy string
	rpm           int
)

// errCrawlFailed makes the process exit non-zero after the results were printed
var errCrawlFailed = errors.New("one or more crawls failed")

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Crawl xiaohongshu notes, comments, feeds and messages",
	Long: `xhscrawl walks the paginated xiaohongshu web API and exports what it collects.

Features:
  - User notes, liked and collected notes of a profile
  - Note and user search, homefeed recommendations
  - Comment trees with their reply streams
  - Mentions, likes and new connections
  - Exports to JSON, Excel, Markdown and SQLite
  - Note image and video download
  - Sessions kept in the system keychain or an encrypted file

A crawl that fails midway keeps the items it already collected and reports
the error next to them.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetNoColor(noColor)

		switch cmd.Name() {
		case "version", "help", "path":
		default:
			ui.PrintLogo()
		}
	},
}

// Execute runs the root command; an interrupt cancels the running crawl
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCrawlFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/xhscrawl/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&notifications, "notify", false, "send a desktop notification when the run ends")
	flags.StringVarP(&accountName, "account", "a", "", "use a specific saved account")
	flags.StringVarP(&outputDir, "output", "o", "", "output directory")
	flags.StringSliceVarP(&formats, "format", "f", nil, "export formats (json, xlsx, md, sqlite)")
	flags.StringVar(&cookies, "cookies", "", "Cookie header to use instead of a saved account")
	flags.StringVar(&proxy, "proxy", "", "HTTP proxy URL")
	flags.DurationVar(&pageDelay, "page-delay", 0, "delay between reply pages")
	flags.StringVar(&delayStrategy, "delay-strategy", "", "page delay strategy (constant, exponential, none)")
	flags.IntVar(&rpm, "rpm", 0, "requests per minute")

	rootCmd.SetVersionTemplate(`xhscrawl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// commandFlags collects the flags the user set, keyed the way
// config.MergeCommandLineFlags reads them
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	set := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("cookies") {
		set["cookies"] = cookies
	}
	if changed("proxy") {
		set["proxy"] = proxy
	}
	if changed("output") {
		set["output"] = outputDir
	}
	if changed("format") {
		set["format"] = formats
	}
	if changed("page-delay") {
		set["page-delay"] = pageDelay
	}
	if changed("delay-strategy") {
		set["delay-strategy"] = delayStrategy
	}
	if changed("rpm") {
		set["rpm"] = rpm
	}
	if changed("log-level") {
		set["log-level"] = logLevel
	}
	if cmd.Flags().Lookup("media") != nil && changed("media") {
		if media, err := cmd.Flags().GetBool("media"); err == nil {
			set["media"] = media
		}
	}
	return set
}

// app is what a crawl command needs once configuration is resolved
type app struct {
	cfg     *config.Config
	log     logger.Logger
	scraper *scraper.Scraper
	store   *storage.Manager
}

// loadConfig resolves configuration and starts the global logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if noColor {
		cfg.Logging.NoColor = true
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// applyAccount fills the session from the credential store unless cookies
// were already configured
func applyAccount(cfg *config.Config, log logger.Logger) error {
	if cfg.XHS.Cookies != "" && accountName == "" {
		log.Debug("Using cookies from configuration")
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No saved session, crawling as a guest", "run 'xhscrawl auth login' to add one")
			return nil
		}
		return err
	}

	cfg.XHS.Cookies = account.Cookies
	if account.UserAgent != "" {
		cfg.XHS.UserAgent = account.UserAgent
	}
	log.WithField("account", account.Name).Info("Using saved session")
	return nil
}

// newApp loads configuration, picks the session and opens the output directory
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("xhscrawl starting")

	if err := applyAccount(cfg, log); err != nil {
		return nil, err
	}

	s, err := scraper.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scraper: %w", err)
	}
	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, err
	}
	store.SetOverwrite(cfg.Output.OverwriteExisting)

	return &app{cfg: cfg, log: log, scraper: s, store: store}, nil
}
