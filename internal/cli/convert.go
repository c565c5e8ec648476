package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/remitflat/internal/history"
	"github.com/ppiankov/remitflat/internal/model"
	"github.com/ppiankov/remitflat/internal/pipeline"
	"github.com/ppiankov/remitflat/internal/sink"
	"github.com/ppiankov/remitflat/internal/source"
)

var (
	outPath     string
	outFormat   string
	sheetName   string
	concurrency int
	columnsMode string
	noCache     bool
	showPreview bool
)

// Flag name -> config key, shared by convert and watch
var outputFlagKeys = map[string]string{
	"out":         "output.path",
	"format":      "output.format",
	"sheet":       "output.sheet",
	"columns":     "output.columns",
	"concurrency": "concurrency.workers",
}

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <file.json|dir|-> ...",
	Short: "Combine remittance JSON documents into one spreadsheet",
	Long: `Convert reads every input, extracts its rows and writes them, in input order,
to a single output file.

Inputs can be .json files, directories (their *.json files, sorted by name)
or "-" for JSON piped on stdin. A bad input is reported and skipped; it never
stops the others.

Example:
  remitflat convert january.json february.json
  remitflat convert ./inbox --out march.xlsx --preview
  remitflat convert ./inbox --format csv --out combined.csv
  cat pasted.json | remitflat convert -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addOutputFlags(convertCmd)
	convertCmd.Flags().BoolVar(&showPreview, "preview", false, "print the first rows before writing")
}

func addOutputFlags(cmd *cobra.Command) {
	defaults := model.DefaultConfig()
	cmd.Flags().StringVarP(&outPath, "out", "o", defaults.Output.Path, "output file path")
	cmd.Flags().StringVarP(&outFormat, "format", "f", defaults.Output.Format, "output format (xlsx, csv, json); inferred from --out when omitted")
	cmd.Flags().StringVar(&sheetName, "sheet", defaults.Output.Sheet, "worksheet name (xlsx)")
	cmd.Flags().IntVar(&concurrency, "concurrency", defaults.Concurrency.Workers, "number of concurrent workers")
	cmd.Flags().StringVar(&columnsMode, "columns", string(defaults.Output.Columns), "column policy (first, union)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the extraction cache")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, outputFlagKeys)
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	format, err := resolveFormat(cfg, flagChanged(cmd.Flags(), "format"))
	if err != nil {
		return err
	}
	if err := checkColumns(cfg.Output.Columns); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  remitflat convert\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Inputs:    %s\n", strings.Join(args, ", "))
	fmt.Fprintf(os.Stderr, "  Output:    %s (%s)\n", cfg.Output.Path, format)
	fmt.Fprintf(os.Stderr, "  Workers:   %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Cache:     %v\n", cfg.Cache.Enabled)
	fmt.Fprintf(os.Stderr, "\n")

	sources := source.NewLoader(cmd.InOrStdin()).Load(args)
	batch, err := convertAndWrite(ctx, cfg, format, sources, "convert", os.Stderr)
	if err != nil {
		return err
	}

	printSummary(os.Stderr, batch, cfg.Output.Path)
	return nil
}

// convertAndWrite runs one batch, writes the output file and records the run
func convertAndWrite(ctx context.Context, cfg *model.Config, format sink.Format, sources []model.Source, command string, progress io.Writer) (*pipeline.Batch, error) {
	logger := newLogger(cfg)
	p := pipeline.NewPipeline(cfg, logger)

	fmt.Fprintf(progress, "⚙️  Converting %d input(s)...\n", len(sources))
	batch := p.Convert(ctx, sources)
	printItems(progress, batch)

	opts := sink.OptionsFromConfig(cfg.Output)
	if showPreview {
		head, total := batch.Preview(cfg.Output.PreviewRows)
		if total > 0 {
			fmt.Fprintln(progress)
			sink.RenderPreview(os.Stdout, head, total, opts)
		}
	}

	writeErr := sink.WriteFile(cfg.Output.Path, format, batch.Table, opts)
	recordRun(ctx, cfg, batch, format, command, writeErr)

	if errors.Is(writeErr, model.ErrNoData) {
		return batch, fmt.Errorf("nothing written: %w", writeErr)
	}
	if writeErr != nil {
		return batch, fmt.Errorf("write %s: %w", cfg.Output.Path, writeErr)
	}

	logger.Info("export.ok", "path", cfg.Output.Path, "format", string(format), "rows", batch.RowCount())
	return batch, nil
}

// resolveFormat picks the output format: the explicit flag or config value,
// else the extension of the output path.
func resolveFormat(cfg *model.Config, explicit bool) (sink.Format, error) {
	name := cfg.Output.Format
	if !explicit {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(cfg.Output.Path)), ".")
		if _, err := sink.ParseFormat(ext); err == nil {
			name = ext
		}
	}
	return sink.ParseFormat(name)
}

func checkColumns(policy model.ColumnPolicy) error {
	switch policy {
	case model.ColumnsFirstRow, model.ColumnsUnion:
		return nil
	}
	return fmt.Errorf("unknown column policy %q (use first or union)", policy)
}

func printItems(w io.Writer, batch *pipeline.Batch) {
	for _, item := range batch.Items {
		if item.Err != nil {
			fmt.Fprintf(w, "✗ %v\n", item.Err)
			continue
		}
		cached := ""
		if item.Cached {
			cached = ", cached"
		}
		fmt.Fprintf(w, "✓ %s (%d rows, %s%s)\n", item.Name, len(item.Rows), item.Strategy, cached)
		for _, warning := range item.Warnings {
			fmt.Fprintf(w, "  ! %s\n", warning)
		}
	}
}

func printSummary(w io.Writer, batch *pipeline.Batch, output string) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Conversion Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Inputs:    %d\n", len(batch.Items))
	fmt.Fprintf(w, "  Success:   %d\n", batch.Succeeded())
	fmt.Fprintf(w, "  Failures:  %d\n", batch.Failed())
	fmt.Fprintf(w, "  Rows:      %d\n", batch.RowCount())
	fmt.Fprintf(w, "  Output:    %s\n", output)
	fmt.Fprintf(w, "  Run:       %s (%v)\n", batch.RunID, batch.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
}

// recordRun appends the batch to the history database. Failures are logged,
// never returned: history is a convenience.
func recordRun(ctx context.Context, cfg *model.Config, batch *pipeline.Batch, format sink.Format, command string, writeErr error) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		newLogger(cfg).Warn("history.open_failed", "path", cfg.History.Path, "err", err)
		return
	}
	defer store.Close()

	run, items := historyRecord(batch, cfg.Output.Path, format, command)
	if writeErr != nil {
		run.Output = ""
	}
	if err := store.Record(ctx, run, items); err != nil {
		newLogger(cfg).Warn("history.record_failed", "run_id", batch.RunID, "err", err)
	}
}

func historyRecord(batch *pipeline.Batch, output string, format sink.Format, command string) (history.Run, []history.Item) {
	run := history.Run{
		ID:         batch.RunID,
		StartedAt:  batch.StartedAt,
		FinishedAt: batch.StartedAt.Add(batch.Elapsed),
		Command:    command,
		Output:     output,
		Format:     string(format),
		Items:      len(batch.Items),
		Failed:     batch.Failed(),
		Rows:       batch.RowCount(),
	}

	items := make([]history.Item, len(batch.Items))
	for i, it := range batch.Items {
		items[i] = history.Item{
			Position: i,
			Name:     it.Name,
			Strategy: string(it.Strategy),
			Rows:     len(it.Rows),
		}
		if it.Err != nil {
			items[i].Error = it.Err.Error()
		}
	}
	return run, items
}
