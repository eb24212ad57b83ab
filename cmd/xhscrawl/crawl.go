package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"xhscrawl/pkg/crawl"
	"xhscrawl/pkg/export"
	"xhscrawl/pkg/models"
	"xhscrawl/pkg/scraper"
	"xhscrawl/pkg/storage"
	"xhscrawl/pkg/ui"
	"xhscrawl/pkg/xhs"
)

var (
	count      int
	searchSort string
	noteType   int
	saveMedia  bool
)

// userCrawl is a per-profile note stream
type userCrawl func(s *scraper.Scraper, ctx context.Context, userURL string) crawl.Result[models.Note]

func newUserCmd(use, short, kind string, run userCrawl) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-url>...",
		Short: short,
		Example: fmt.Sprintf(`  xhscrawl %s "https://www.xiaohongshu.com/user/profile/5f1c...?xsec_token=AB..."
  xhscrawl %s <url1> <url2> --format json,xlsx`, use, use),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			tracker := ui.NewStatusTracker(len(args))
			for _, userURL := range args {
				res := run(a.scraper, cmd.Context(), userURL)
				a.report(cmd.Context(), export.Notes(export.FileBase(kind, targetID(userURL)), res))
				tracker.Record(res.OK, res.Message, len(res.Data))
				if len(args) > 1 {
					tracker.PrintProgress()
				}
			}
			return a.finish(tracker)
		},
	}
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search notes or users",
}

var searchNotesCmd = &cobra.Command{
	Use:   "notes <keyword>",
	Short: "Collect the first N note search results",
	Example: `  xhscrawl search notes iced coffee -n 50
  xhscrawl search notes coffee --sort popularity_descending --type 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		keyword := strings.Join(args, " ")
		q := xhs.SearchQuery{Keyword: keyword, Sort: xhs.SortOrder(searchSort), NoteType: xhs.NoteType(a.cfg.Crawl.SearchNoteType)}
		if cmd.Flags().Changed("type") {
			q.NoteType = xhs.NoteType(noteType)
		}

		res := a.scraper.SearchNotes(cmd.Context(), q, a.count())
		return a.single(cmd.Context(), export.Notes(export.FileBase("search_notes", keyword), res))
	},
}

var searchUsersCmd = &cobra.Command{
	Use:   "users <keyword>",
	Short: "Collect the first N user search results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		keyword := strings.Join(args, " ")

		res := a.scraper.SearchUsers(cmd.Context(), keyword, a.count())
		return a.single(cmd.Context(), export.Users(export.FileBase("search_users", keyword), res))
	},
}

var homefeedCmd = &cobra.Command{
	Use:   "homefeed [category]",
	Short: "Collect N homefeed recommendations",
	Long: `Collect N recommendations from a homefeed channel. Without a category the
configured one is used; 'xhscrawl channels' lists the others.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		category := a.cfg.Crawl.HomefeedCategory
		if len(args) == 1 {
			category = args[0]
		}

		res := a.scraper.Homefeed(cmd.Context(), category, a.count())
		return a.single(cmd.Context(), export.Notes(export.FileBase("homefeed", category), res))
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments <note-url>",
	Short: "Collect a note's comments with their replies",
	Long: `Collect every top-level comment of a note and the replies under them.

A reply stream that fails is marked incomplete and the crawl goes on; the
summary counts how many reply streams were cut short.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		res := a.scraper.NoteComments(cmd.Context(), args[0])
		return a.single(cmd.Context(), export.Comments(export.FileBase("comments", targetID(args[0])), res))
	},
}

var noteCmd = &cobra.Command{
	Use:   "note <note-url>",
	Short: "Fetch a note and optionally its images and video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		note, err := a.scraper.NoteDetail(ctx, args[0])
		res := crawl.Result[models.Note]{OK: err == nil}
		if err != nil {
			res.Message, res.Err = err.Error(), err
		} else {
			res.Message = "fetched note"
			res.Data = []models.Note{*note}
		}
		if err := a.single(ctx, export.Notes(export.FileBase("note", targetID(args[0])), res)); err != nil {
			return err
		}

		if !a.cfg.Output.SaveMedia {
			return nil
		}
		media, err := storage.NewManager(filepath.Join(a.cfg.Output.BaseDirectory, "media"))
		if err != nil {
			return err
		}
		media.SetOverwrite(a.cfg.Output.OverwriteExisting)

		report, err := a.scraper.SaveNoteMedia(ctx, note, media)
		if err != nil {
			return err
		}
		ui.PrintInfo("Media", fmt.Sprintf("%d saved, %d skipped, %d failed in %s",
			report.Saved, report.Skipped, report.Failed, media.OutputDir()))
		for _, e := range report.Errors {
			ui.PrintWarning("Media failed", e)
		}
		if report.Failed > 0 {
			return errCrawlFailed
		}
		return nil
	},
}

// messageCrawl is one of the message feeds of the logged in account
type messageCrawl func(s *scraper.Scraper, ctx context.Context) crawl.Result[models.MessageEvent]

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Collect the logged in account's message feeds",
}

func newMessageCmd(use, short, kind string, run messageCrawl) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			res := run(a.scraper, cmd.Context())
			return a.single(cmd.Context(), export.Messages(kind, res))
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newUserCmd("notes", "Collect every note a user posted", "user_notes", (*scraper.Scraper).UserNotes),
		newUserCmd("likes", "Collect the notes a user liked", "liked_notes", (*scraper.Scraper).LikedNotes),
		newUserCmd("collects", "Collect the notes a user saved", "collected_notes", (*scraper.Scraper).CollectedNotes),
		searchCmd, homefeedCmd, commentsCmd, noteCmd, messagesCmd,
	)

	searchCmd.AddCommand(searchNotesCmd, searchUsersCmd)
	for _, c := range []*cobra.Command{searchNotesCmd, searchUsersCmd, homefeedCmd} {
		c.Flags().IntVarP(&count, "count", "n", 0, "number of items to collect (default from config)")
	}
	searchNotesCmd.Flags().StringVar(&searchSort, "sort", "", "general, time_descending or popularity_descending")
	searchNotesCmd.Flags().IntVar(&noteType, "type", 0, "0 all, 1 video, 2 image")

	noteCmd.Flags().BoolVar(&saveMedia, "media", false, "download the note's images and video")

	messagesCmd.AddCommand(
		newMessageCmd("mentions", "Collect comments and notes that mention you", "mentions", (*scraper.Scraper).Mentions),
		newMessageCmd("likes", "Collect likes and collects of your notes", "likes_collects", (*scraper.Scraper).LikesAndCollects),
		newMessageCmd("connections", "Collect new followers", "connections", (*scraper.Scraper).Connections),
	)
}

// count returns -n, or the configured default when it is not set
func (a *app) count() int {
	if count > 0 {
		return count
	}
	return a.cfg.Crawl.DefaultCount
}

// report exports one crawl and prints its outcome
func (a *app) report(ctx context.Context, d *export.Dataset) {
	files, err := export.WriteAll(ctx, d, a.store, a.cfg.Output.Formats, a.log)
	if err != nil {
		ui.PrintError("Export failed", err)
	}
	ui.PrintResult(d.Name, d.OK, d.Message, d.Len())
	for _, f := range files {
		ui.PrintInfo("  saved", a.store.Path(f))
	}
}

// single reports a one-crawl command
func (a *app) single(ctx context.Context, d *export.Dataset) error {
	tracker := ui.NewStatusTracker(1)
	a.report(ctx, d)
	tracker.Record(d.OK, d.Message, d.Len())
	return a.finish(tracker)
}

// finish prints the run summary, notifies and maps failures to the exit code
func (a *app) finish(tracker *ui.StatusTracker) error {
	if tracker.Planned > 1 {
		tracker.PrintSummary()
	}

	if notifications {
		n := ui.NewNotifier()
		summary := fmt.Sprintf("%d items, %d partial, %d failed", tracker.Items, tracker.Partial, tracker.Failed)
		if tracker.AllOK() {
			n.SendSuccess("xhscrawl finished", summary)
		} else {
			n.SendError("xhscrawl failed", summary)
		}
	}

	if !tracker.AllOK() {
		return errCrawlFailed
	}
	return nil
}

// targetID names output files after the id in a note or profile url
func targetID(rawURL string) string {
	t, err := xhs.ParseTarget(rawURL, "")
	if err != nil {
		return "invalid"
	}
	return t.ID
}
