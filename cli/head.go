package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
)

var headCmd = &cobra.Command{
	Use:   "head",
	Short: "Show the checked-out commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		history, err := mgr.Store()
		if err != nil {
			return err
		}
		id, ok := history.Head()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), colors.Gray("(no commits)"))
			return nil
		}
		c, _ := history.Get(id)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colors.CommitID(id), c.Message)
		return nil
	},
}
