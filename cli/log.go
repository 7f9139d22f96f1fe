package cli

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
	"github.com/javanhut/artgit/internal/commitstore"
	"github.com/javanhut/artgit/internal/nickname"
)

var logCmd = &cobra.Command{
	Use:   "log [options]",
	Short: "Show commit history",
	Long: `Display the document's commits, newest first.

Examples:
  artgit log                  # Show all commits
  artgit log --oneline        # Show concise one-line format
  artgit log --limit 10       # Show only last 10 commits
  artgit log --watch          # Reprint whenever the history changes`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var (
	logOneline bool
	logLimit   int
	logWatch   bool
)

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show one line per commit")
	logCmd.Flags().IntVar(&logLimit, "limit", 0, "Limit number of commits to show")
	logCmd.Flags().BoolVar(&logWatch, "watch", false, "Keep running and reprint on change")
}

func runLog(cmd *cobra.Command, args []string) error {
	mgr, err := openManager()
	if err != nil {
		return err
	}
	history, err := mgr.Store()
	if err != nil {
		mgr.Close()
		return err
	}
	out := cmd.OutOrStdout()
	printLog(out, history, time.Now())
	if err := mgr.Close(); err != nil {
		logger.Warn("closing artifact index", "error", err)
	}
	if !logWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	path := history.Path()
	fmt.Fprintln(out, colors.Dim("watching "+filepath.Base(path)+", Ctrl-C to stop"))
	return commitstore.Watch(ctx, path, func(s *commitstore.Store) {
		fmt.Fprintln(out)
		printLog(out, s, time.Now())
	}, commitstore.WithLogger(logger))
}

func printLog(out io.Writer, history *commitstore.Store, now time.Time) {
	commits := history.ListOrderedByTime(true)
	if len(commits) == 0 {
		fmt.Fprintln(out, colors.Gray("No commits yet"))
		return
	}
	if logLimit > 0 && len(commits) > logLimit {
		commits = commits[:logLimit]
	}
	head, _ := history.Head()
	if logOneline {
		displayCommitsOneline(out, commits, head)
		return
	}
	displayCommitsFull(out, commits, head, now)
}

// displayCommitsFull displays commits in full format
func displayCommitsFull(out io.Writer, commits []commitstore.Commit, head string, now time.Time) {
	for i, c := range commits {
		marker := ""
		if c.ID == head {
			marker = " " + colors.HeadMarker()
		}
		fmt.Fprintf(out, "%s %s%s\n", colors.Cyan("commit"), colors.CommitID(c.ID), marker)
		if c.Parent != "" {
			fmt.Fprintf(out, "Parent: %s\n", colors.Gray(c.Parent))
		}
		fmt.Fprintf(out, "Name:   %s\n", nickname.For(c.ID))
		fmt.Fprintf(out, "Date:   %s (%s)\n", c.DisplayTime, colors.Gray(getRelativeTime(c.Timestamp, now)))
		fmt.Fprintf(out, "\n    %s\n", c.Message)
		if i < len(commits)-1 {
			fmt.Fprintln(out)
		}
	}
}

// displayCommitsOneline displays commits in one-line format
func displayCommitsOneline(out io.Writer, commits []commitstore.Commit, head string) {
	for _, c := range commits {
		message := c.Message
		if len(message) > 60 {
			message = message[:57] + "..."
		}
		marker := ""
		if c.ID == head {
			marker = " " + colors.HeadMarker()
		}
		fmt.Fprintf(out, "%s %s%s\n", colors.CommitID(c.ShortID()), message, marker)
	}
}

// getRelativeTime returns a human-readable relative time string
func getRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	}
	return plural(int(diff.Hours()/24/365), "year")
}
