package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"xhscrawl/pkg/auth"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/scraper"
	"xhscrawl/pkg/ui"
)

var (
	checkAfterLogin bool
	quickGuide      bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage saved xiaohongshu sessions",
	Long: `Manage saved xiaohongshu web sessions.

Sessions are stored in:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - XHSCRAWL_COOKIES environment variable (read only)

Never share your cookies or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Save a browser session",
	Long: `Save the Cookie header of a logged-in browser session.

You will be prompted for:
  - An account name (if not provided)
  - The Cookie header (hidden as you type)
  - User Agent (optional, press Enter for default)

Run 'xhscrawl auth guide' to see where to copy the header from.`,
	Example: `  xhscrawl auth login
  xhscrawl auth login work --check`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a saved session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Long:  `List saved sessions, newest first, with cookie values masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var checkCmd = &cobra.Command{
	Use:   "check [name]",
	Short: "Check that a saved session is still logged in",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		var account *auth.Account
		if len(args) == 1 {
			account, err = manager.Retrieve(args[0])
		} else {
			account, err = manager.RetrieveDefault()
		}
		if err != nil {
			return err
		}
		return checkSession(cmd, account)
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to copy the session cookies from a browser",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if quickGuide {
			auth.ShowQuickExtractGuide(ui.Out)
			return
		}
		auth.ShowCookieExtractionGuide(ui.Out)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd, checkCmd, guideCmd)

	loginCmd.Flags().BoolVar(&checkAfterLogin, "check", false, "ask the API whether the session is logged in before saving")
	guideCmd.Flags().BoolVar(&quickGuide, "quick", false, "show the one-line version")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	reader := bufio.NewReader(os.Stdin)

	name := "default"
	if len(args) > 0 {
		name = args[0]
	} else {
		fmt.Fprint(ui.Out, "Account name [default]: ")
		if input := readLine(reader); input != "" {
			name = input
		}
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(ui.Out, "Account '%s' already exists. Replace it? (y/N): ", name)
		if !strings.HasPrefix(strings.ToLower(readLine(reader)), "y") {
			return nil
		}
	}

	auth.ShowQuickExtractGuide(ui.Out)
	var account *auth.Account
	for {
		fmt.Fprint(ui.Out, "\nCookie header: ")
		header, err := readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read cookies: %w", err)
		}
		if header == "help" {
			auth.ShowCookieExtractionGuide(ui.Out)
			continue
		}

		account = &auth.Account{Name: name, Cookies: header}
		if err := account.Validate(); err != nil {
			ui.PrintError("That does not look like a logged-in session", err)
			fmt.Fprint(ui.Out, "Try again? (Y/n): ")
			if strings.ToLower(readLine(reader)) == "n" {
				return err
			}
			continue
		}
		break
	}

	fmt.Fprint(ui.Out, "User Agent (press Enter to use default): ")
	account.UserAgent = readLine(reader)

	if checkAfterLogin {
		if err := checkSession(cmd, account); err != nil {
			return err
		}
	}

	if err := manager.Store(account); err != nil {
		return err
	}
	ui.PrintSuccess("Session saved: " + name)
	fmt.Fprintln(ui.Out, "\nCrawls use the newest saved session; pick another with --account "+name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintError("No saved sessions found")
			return nil
		}

		fmt.Fprintln(ui.Out, "Select session to remove:")
		for i, account := range accounts {
			fmt.Fprintf(ui.Out, "  %d. %s\n", i+1, account.Name)
		}
		fmt.Fprint(ui.Out, "  0. Cancel\n\nChoice: ")

		var choice int
		fmt.Sscanf(readLine(bufio.NewReader(os.Stdin)), "%d", &choice)
		if choice == 0 {
			return nil
		}
		if choice < 0 || choice > len(accounts) {
			return errors.New("invalid choice")
		}
		name = accounts[choice-1].Name
	}

	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess("Session removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No saved sessions", "Use 'xhscrawl auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Saved Sessions")
	fmt.Fprintln(ui.Out)
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(ui.Out, "%d. %s\n", i+1, sanitized.Name)
		fmt.Fprintf(ui.Out, "   Cookies: %s\n", sanitized.Cookies)
		if sanitized.UserAgent != "" {
			fmt.Fprintf(ui.Out, "   User Agent: %s\n", sanitized.UserAgent)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(ui.Out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(ui.Out)
	}
	return nil
}

// checkSession asks the API who account's cookies belong to
func checkSession(cmd *cobra.Command, account *auth.Account) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.XHS.Cookies = account.Cookies
	if account.UserAgent != "" {
		cfg.XHS.UserAgent = account.UserAgent
	}

	s, err := scraper.New(cfg, logger.GetLogger())
	if err != nil {
		return err
	}
	info, err := s.CheckSession(cmd.Context())
	if err != nil {
		ui.PrintError("Session check failed", err)
		return err
	}
	ui.PrintSuccess("Session is valid: " + account.Name)
	return printJSON(info)
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Out)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
