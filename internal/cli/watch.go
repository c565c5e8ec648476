package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/remitflat/internal/model"
	"github.com/ppiankov/remitflat/internal/source"
	"github.com/ppiankov/remitflat/internal/watch"
	"github.com/ppiankov/remitflat/internal/worker"
)

var watchDebounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Rebuild the combined output whenever JSON files in a directory change",
	Long: `Watch converts every *.json file in the directory once, then keeps the output
up to date: whenever a file is added, changed or removed, the whole directory is
converted again and the output is rewritten.

Rebuilds are debounced and spaced at least watch.min_interval apart.
Press Ctrl+C to stop.

Example:
  remitflat watch ./inbox --out inbox.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addOutputFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", model.DefaultConfig().Watch.Debounce, "quiet period before a rebuild")
}

func runWatch(cmd *cobra.Command, args []string) error {
	flagKeys := map[string]string{"debounce": "watch.debounce"}
	for name, key := range outputFlagKeys {
		flagKeys[name] = key
	}
	cfg, err := loadConfig(cmd, flagKeys)
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

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger(cfg)
	changes, err := watch.New(dir, cfg.Watch.Debounce, logger).Watch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  remitflat watch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Directory: %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Output:    %s (%s)\n", cfg.Output.Path, format)
	fmt.Fprintf(os.Stderr, "  Debounce:  %v\n", cfg.Watch.Debounce)
	fmt.Fprintf(os.Stderr, "\n")

	rebuild := func() {
		sources := source.NewLoader(nil).Load([]string{dir})
		batch, err := convertAndWrite(ctx, cfg, format, sources, "watch", os.Stderr)
		switch {
		case errors.Is(err, model.ErrNoData):
			fmt.Fprintf(os.Stderr, "  No rows yet, waiting for files...\n\n")
		case err != nil:
			fmt.Fprintf(os.Stderr, "✗ %v\n\n", err)
		default:
			fmt.Fprintf(os.Stderr, "✓ %s updated: %d rows from %d file(s)\n\n", cfg.Output.Path, batch.RowCount(), batch.Succeeded())
		}
	}

	rebuild()

	limiter := worker.NewLimiter(cfg.Watch.MinInterval, 1)
	_ = limiter.Allow(dir) // the initial build counts as a run
	outAbs, _ := filepath.Abs(cfg.Output.Path)

	for change := range changes {
		if onlyOutput(change.Paths, outAbs) {
			continue
		}
		fmt.Fprintf(os.Stderr, "↻ %d file(s) changed\n", len(change.Paths))
		if err := limiter.Wait(ctx, dir); err != nil {
			break
		}
		rebuild()
	}

	fmt.Fprintf(os.Stderr, "Stopped watching %s\n", dir)
	return nil
}

// onlyOutput reports whether a change touches nothing but the output file,
// which happens when a json output is written into the watched directory.
func onlyOutput(paths []string, outAbs string) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || abs != outAbs {
			return false
		}
	}
	return true
}
