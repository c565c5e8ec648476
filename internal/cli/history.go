package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ppiankov/remitflat/internal/history"
)

var (
	historyLimit int
	historyItems string
	historyPrune time.Duration
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past conversion runs",
	Long: `History shows the runs recorded by convert and watch, newest first.

Example:
  remitflat history
  remitflat history --items 3f0c9a5e-...
  remitflat history --prune 720h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to list")
	historyCmd.Flags().StringVar(&historyItems, "items", "", "show the inputs of one run")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than this duration")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	newLogger(cfg)

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case historyPrune > 0:
		n, err := store.Prune(ctx, time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Removed %d run(s) older than %v\n", n, historyPrune)
		return nil

	case historyItems != "":
		items, err := store.Items(ctx, historyItems)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("no run %s", historyItems)
		}
		renderItems(out, items)
		return nil
	}

	runs, err := store.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}
	renderRuns(out, runs)
	return nil
}

func renderRuns(w io.Writer, runs []history.Run) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Run", "Started", "Command", "Inputs", "Failed", "Rows", "Output"})
	for _, r := range runs {
		output := r.Output
		if output == "" {
			output = "(not written)"
		}
		tw.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Command,
			r.Items,
			r.Failed,
			r.Rows,
			output,
		})
	}
	tw.Render()
}

func renderItems(w io.Writer, items []history.Item) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Input", "Path", "Rows", "Error"})
	for _, it := range items {
		tw.AppendRow(table.Row{it.Position + 1, it.Name, it.Strategy, it.Rows, it.Error})
	}
	tw.Render()
}
