package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
)

var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore <commit>",
	Short: "Replace the document with a commit's snapshot",
	Long: `Replace the document content, canvas size, resolution and color model
with those of a commit, and move HEAD there. History is kept; the next
commit branches from the restored one. The commit may be given by full id,
short id or nickname.

Examples:
  artgit restore v_20250301_101500_3fa2c1d9
  artgit restore 3fa2c1d9
  artgit restore --yes cobalt-heron-sketches-softly`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")
}

func runRestore(cmd *cobra.Command, args []string) error {
	mgr, err := openManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	history, err := mgr.Store()
	if err != nil {
		return err
	}
	id, err := resolveCommit(history, args[0])
	if err != nil {
		return err
	}
	c, ok := history.Get(id)
	if ok && !restoreYes {
		fmt.Fprintf(cmd.OutOrStdout(), "Restore %s %q from %s? Unsaved changes to the document are lost. [y/N] ",
			colors.CommitID(c.ShortID()), c.Message, c.DisplayTime)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), colors.Gray("Aborted"))
			return nil
		}
	}

	if err := mgr.Restore(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", colors.SuccessText("Restored"), colors.CommitID(id), c.Message)
	return nil
}
