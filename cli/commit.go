package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
	"github.com/javanhut/artgit/internal/snapshot"
)

var commitMsg string

var commitCmd = &cobra.Command{
	Use:   "commit -m <message>",
	Short: "Snapshot the document",
	Long: `Save a snapshot of the document as a new commit on top of HEAD.

Examples:
  artgit --doc cat.kra commit -m "block in shapes"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()
		return commitAction{manager: mgr, out: cmd.OutOrStdout()}.run(commitMsg)
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMsg, "message", "m", "", "Commit message")
	commitCmd.MarkFlagRequired("message")
}

// commitAction commits through the manager it was built with.
type commitAction struct {
	manager *snapshot.Manager
	out     io.Writer
}

func (a commitAction) run(message string) error {
	c, err := a.manager.Commit(message)
	if err != nil && c.ID == "" {
		return err
	}
	fmt.Fprintf(a.out, "%s %s %s\n", colors.SuccessText("Committed"), colors.CommitID(c.ID), c.Message)
	if c.Parent != "" {
		fmt.Fprintf(a.out, "  parent %s\n", colors.CommitID(c.Parent))
	}
	if c.Preview == "" {
		fmt.Fprintln(a.out, colors.WarningText("  no thumbnail for this commit"))
	}
	if err == nil {
		return nil
	}
	// The commit is in memory; retry the history save once.
	logger.Warn("saving history failed, retrying once", "commit", c.ID, "error", err)
	if retryErr := a.manager.SaveHistory(); retryErr != nil {
		return fmt.Errorf("commit %s is not saved yet: %w", c.ID, retryErr)
	}
	return nil
}
