package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetbook/internal/meeting"
	"github.com/teemow/meetbook/internal/scheduling"
)

func newMeetingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Inspect and manage stored meetings",
	}
	cmd.AddCommand(newMeetingsListCmd())
	cmd.AddCommand(newMeetingsGenerateLinksCmd())
	cmd.AddCommand(newMeetingsMarkCmd())
	return cmd
}

// withApp loads configuration, builds the application and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}

func newMeetingsListCmd() *cobra.Command {
	var (
		missingLink bool
		status      string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := meeting.ListFilter{MissingLink: missingLink, Limit: limit}
			if status != "" {
				s, err := meeting.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				meetings, err := a.repo.List(ctx, filter)
				if err != nil {
					return err
				}
				return printMeetings(cmd.OutOrStdout(), meetings, a.cfg.Location())
			})
		},
	}

	cmd.Flags().BoolVar(&missingLink, "missing-link", false, "Only meetings without a Meet link")
	cmd.Flags().StringVar(&status, "status", "", "Only meetings in this status (pending, confirmed, completed, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of meetings to show")
	return cmd
}

func printMeetings(out io.Writer, meetings []meeting.Meeting, loc *time.Location) error {
	if len(meetings) == 0 {
		_, err := fmt.Fprintln(out, "No meetings found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tTOPIC\tSTARTS\tSTATUS\tMEET LINK")
	for i := range meetings {
		m := &meetings[i]
		link := m.MeetURL
		if link == "" {
			link = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Name, m.Email, m.Topic,
			m.StartsAt(loc).Format("2006-01-02 15:04 MST"),
			m.Status, link)
	}
	return w.Flush()
}

func newMeetingsGenerateLinksCmd() *cobra.Command {
	var allMissing bool

	cmd := &cobra.Command{
		Use:   "generate-links [id...]",
		Short: "Generate Meet links for meetings that have none and email the requesters",
		Long: `Generate Google Meet links for the given meetings, or for every meeting
without a link when --all-missing is set. Meetings that already have a link
are skipped, so running the command again is harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !allMissing && len(args) == 0 {
				return fmt.Errorf("pass meeting IDs or --all-missing")
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var summary scheduling.Summary
				if allMissing {
					summary, err = a.bulk.GenerateMissing(ctx)
					if err != nil {
						return err
					}
				} else {
					summary = a.bulk.GenerateLinks(ctx, ids)
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary.String())
				if summary.Errored > 0 {
					return fmt.Errorf("%d meeting(s) failed", summary.Errored)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allMissing, "all-missing", false, "Process every meeting without a link")
	return cmd
}

func newMeetingsMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <status> <id>...",
		Short: "Set the status of meetings",
		Long: `Set the status of one or more meetings. A meeting can only be marked
confirmed once it has a Meet link.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := meeting.ParseStatus(args[0])
			if err != nil {
				return err
			}
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				updated, err := a.bulk.MarkStatus(ctx, ids, status)
				fmt.Fprintf(cmd.OutOrStdout(), "%d meeting(s) marked as %s.\n", updated, status)
				return err
			})
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid meeting ID %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
