package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ppiankov/remitflat/internal/model"
	"github.com/ppiankov/remitflat/internal/pipeline"
	"github.com/ppiankov/remitflat/internal/sink"
	"github.com/ppiankov/remitflat/internal/source"
)

var (
	previewRows int
	htmlPath    string
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <file.json|dir|-> ...",
	Short: "Show the first rows of the combined table without writing it",
	Long: `Preview converts the inputs exactly like convert does and prints the first
rows as a table. Nested values are shortened; the output file is not written.

Use --html to also save the preview as a standalone HTML page.

Example:
  remitflat preview claims.json
  remitflat preview ./inbox --rows 10 --html preview.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVarP(&previewRows, "rows", "n", 0, "rows to show (default from config: output.preview_rows)")
	previewCmd.Flags().StringVar(&htmlPath, "html", "", "also write the preview to this HTML file")
	previewCmd.Flags().StringVar(&columnsMode, "columns", "", "column policy (first, union)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"rows":    "output.preview_rows",
		"columns": "output.columns",
	})
	if err != nil {
		return err
	}
	if err := checkColumns(cfg.Output.Columns); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sources := source.NewLoader(cmd.InOrStdin()).Load(args)
	batch := pipeline.NewPipeline(cfg, newLogger(cfg)).Convert(ctx, sources)
	printItems(os.Stderr, batch)

	head, total := batch.Preview(cfg.Output.PreviewRows)
	if total == 0 {
		return fmt.Errorf("nothing to preview: %d of %d input(s) failed", batch.Failed(), len(batch.Items))
	}

	opts := sink.OptionsFromConfig(cfg.Output)
	fmt.Fprintln(os.Stderr)
	sink.RenderPreview(cmd.OutOrStdout(), head, total, opts)

	if htmlPath != "" {
		if err := writeHTMLPreview(htmlPath, head, total, opts); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\n✓ Preview saved to %s\n", htmlPath)
	}
	return nil
}

func writeHTMLPreview(path string, head model.Table, total int, opts sink.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := sink.RenderHTML(f, head, total, opts); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
