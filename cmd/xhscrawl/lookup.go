package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"xhscrawl/pkg/ui"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the profile of the session in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		info, err := a.scraper.SelfInfo(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(info)
	},
}

var userCmd = &cobra.Command{
	Use:   "user <user-url>",
	Short: "Show a user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		info, err := a.scraper.UserProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(info)
	},
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the homefeed categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		channels, err := a.scraper.Channels(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range channels {
			ui.PrintInfo(c.ID, c.Name)
		}
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <word>",
	Short: "Show search suggestions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		words, err := a.scraper.Suggest(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		for _, w := range words {
			fmt.Fprintln(ui.Out, w)
		}
		return nil
	},
}

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the unread message counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		u, err := a.scraper.Unread(cmd.Context())
		if err != nil {
			return err
		}
		ui.PrintInfo("Unread", fmt.Sprint(u.Unread))
		ui.PrintInfo("Mentions", fmt.Sprint(u.Mentions))
		ui.PrintInfo("Likes", fmt.Sprint(u.Likes))
		ui.PrintInfo("Connections", fmt.Sprint(u.Connections))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd, userCmd, channelsCmd, suggestCmd, unreadCmd)
}

func printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(ui.Out)
	return err
}
