package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/archive"
	"github.com/javanhut/artgit/internal/colors"
	"github.com/javanhut/artgit/internal/errs"
	"github.com/javanhut/artgit/internal/snapshot"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Export or import the versions directory",
	Long: `Pack the document's versions directory into one .tar.zst file, or
unpack such a file next to the document.

Examples:
  artgit --doc cat.kra archive export              # writes cat_artgit_versions.tar.zst
  artgit --doc cat.kra archive import backup.tar.zst`,
}

var archiveExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the versions directory to a .tar.zst file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := versionsDir()
		if err != nil {
			return err
		}
		out := strings.TrimSuffix(dir, string(os.PathSeparator)) + archive.Extension
		if len(args) == 1 {
			out = args[0]
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
		}
		n, err := archive.Export(dir, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
			return fmt.Errorf("%w: export: %v", errs.ErrPersistence, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d files to %s\n", colors.SuccessText("Exported"), n, out)
		return nil
	},
}

var archiveImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Unpack a .tar.zst file into the versions directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := versionsDir()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
		}
		defer f.Close()
		n, err := archive.Import(f, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d files into %s\n", colors.SuccessText("Imported"), n, dir)
		return nil
	},
}

func versionsDir() (string, error) {
	if docPath == "" {
		return "", errNoDocument
	}
	return snapshot.VersionsDir(docPath), nil
}
