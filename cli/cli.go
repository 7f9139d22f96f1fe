// Package cli implements the artgit command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
	"github.com/javanhut/artgit/internal/config"
	"github.com/javanhut/artgit/internal/errs"
	"github.com/javanhut/artgit/internal/filehost"
	"github.com/javanhut/artgit/internal/logging"
	"github.com/javanhut/artgit/internal/snapshot"
)

// EnvDocument names the document when --doc is not given.
const EnvDocument = "ARTGIT_DOC"

var rootCmd = &cobra.Command{
	Use:   "artgit",
	Short: "Version control for image documents",
	Long: `artgit keeps a history of snapshots of a single image document.

Every commit stores a copy of the document and a thumbnail next to it in
<name>_artgit_versions/. Restoring a commit replaces the document content
and moves HEAD without rewriting history.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	docPath  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&docPath, "doc", "d", os.Getenv(EnvDocument), "Document file to version")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(headCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveExportCmd, archiveImportCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colors.ErrorText("Error: "+err.Error()))
		os.Exit(exitCode(err))
	}
}

// exitCode maps error categories to distinct statuses for scripts.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return 2
	case errors.Is(err, errs.ErrNotFound):
		return 3
	case errors.Is(err, errs.ErrPersistence):
		return 4
	case errors.Is(err, errs.ErrRemote):
		return 5
	}
	return 1
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err = logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if !cfg.Color.UI {
		colors.SetColorEnabled(false)
	}
	return nil
}

var errNoDocument = fmt.Errorf("%w: no document given (use --doc or %s)", errs.ErrValidation, EnvDocument)

// openManager returns a snapshot manager for the --doc file.
func openManager() (*snapshot.Manager, error) {
	if docPath == "" {
		return nil, errNoDocument
	}
	if _, err := os.Stat(docPath); err != nil {
		return nil, fmt.Errorf("%w: document %s: %v", errs.ErrNotFound, docPath, err)
	}
	return snapshot.NewManager(
		filehost.New(docPath),
		snapshot.WithLogger(logger),
		snapshot.WithThumbnailSize(cfg.Snapshot.ThumbnailSize),
	), nil
}
