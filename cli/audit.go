package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check the versions directory against the history",
	Long: `List commits whose snapshot file is gone, files in the versions
directory that no commit references, and artifacts whose content no longer
matches the digest recorded when they were committed. Nothing is changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		report, err := mgr.Audit()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if report.Clean() {
			fmt.Fprintln(out, colors.SuccessText("History and artifacts agree"))
			return nil
		}
		if len(report.Missing) > 0 {
			fmt.Fprintln(out, colors.SectionHeader("Commits without a snapshot:"))
			for _, id := range report.Missing {
				fmt.Fprintln(out, colors.Missing(id))
			}
		}
		if len(report.Orphans) > 0 {
			fmt.Fprintln(out, colors.SectionHeader("Unreferenced files:"))
			for _, name := range report.Orphans {
				fmt.Fprintln(out, colors.Orphan(name))
			}
		}
		if len(report.Corrupt) > 0 {
			fmt.Fprintln(out, colors.SectionHeader("Damaged artifacts:"))
			for _, name := range report.Corrupt {
				fmt.Fprintln(out, colors.Missing(name))
			}
		}
		return nil
	},
}
