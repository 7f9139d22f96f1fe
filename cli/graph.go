package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
	"github.com/javanhut/artgit/internal/commitstore"
	"github.com/javanhut/artgit/internal/graphlayout"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Lay out the commit graph and write it as SVG",
	Long: `Run the force-directed layout of the commit graph until it settles
and write the result as an SVG image. The checked-out commit is drawn
with its preview card open.

Examples:
  artgit graph                      # writes <doc>_graph.svg
  artgit graph --svg history.svg --max-ticks 2000`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

var (
	graphSVG      string
	graphMaxTicks int
)

func init() {
	graphCmd.Flags().StringVar(&graphSVG, "svg", "", "Output file (default <doc>_graph.svg)")
	graphCmd.Flags().IntVar(&graphMaxTicks, "max-ticks", 20000, "Stop the simulation after this many ticks")
}

func runGraph(cmd *cobra.Command, args []string) error {
	mgr, err := openManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	history, err := mgr.Store()
	if err != nil {
		return err
	}
	if history.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), colors.Gray("No commits yet"))
		return nil
	}

	engine := graphlayout.Build(graphInputs(history, mgr.PreviewPath), cfg.LayoutParams())
	ticks := engine.Run(graphMaxTicks)
	settled := !engine.Active()
	if head, ok := history.Head(); ok {
		p := engine.Params()
		var now time.Time
		if err := engine.HoverEnter(head, now); err == nil {
			engine.Animate(now.Add(max(p.ScaleDuration, p.PopupDuration)))
		}
	}

	out := graphSVG
	if out == "" {
		out = strings.TrimSuffix(docPath, filepath.Ext(docPath)) + "_graph.svg"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := graphlayout.WriteSVG(f, engine); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	state := "settled"
	if !settled {
		state = colors.WarningText("still moving")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d commits, %d edges, %s after %d ticks -> %s\n",
		colors.SuccessText("Graph"), engine.Len(), engine.EdgeCount(), state, ticks, out)
	return nil
}

// graphInputs orders nodes newest first, as log lists them, so start
// angles follow time rather than the order commits entered the file.
func graphInputs(history *commitstore.Store, previewPath func(commitstore.Commit) string) []graphlayout.Input {
	return graphlayout.FromCommits(history.ListOrderedByTime(true), previewPath)
}
