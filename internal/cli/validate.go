package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ppiankov/remitflat/internal/model"
	"github.com/ppiankov/remitflat/internal/source"
	"github.com/ppiankov/remitflat/internal/validate"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <file.json|dir|-> ...",
	Short: "Check inputs against the remittance layout",
	Long: `Validate reports, for each input, which extraction path it will take and
whether it matches the expected remittance layout (Remittance.Claim[].Activity[]).

Documents that do not match are still convertible: they fall back to generic
flattening. Validate fails only when an input cannot be read or parsed.

Example:
  remitflat validate ./inbox`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	newLogger(cfg)

	v, err := validate.NewValidator(cfg.Concurrency.Workers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sources := source.NewLoader(cmd.InOrStdin()).Load(args)
	reports := v.Validate(ctx, sources)

	failed := printReports(cmd.OutOrStdout(), reports)
	if failed > 0 {
		return fmt.Errorf("%d of %d input(s) could not be read", failed, len(reports))
	}
	return nil
}

// printReports writes one line per report and returns the number of errors
func printReports(w io.Writer, reports []validate.Report) int {
	failed := 0
	for _, r := range reports {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(w, "✗ %v\n", r.Err)
		case r.Conforms:
			fmt.Fprintf(w, "✓ %s: %s layout\n", r.Name, r.Strategy)
		case r.Strategy == model.PathRemittance:
			fmt.Fprintf(w, "! %s: %s layout with deviations (%s)\n", r.Name, r.Strategy, r.Problem)
		default:
			fmt.Fprintf(w, "• %s: %s flattening (%s)\n", r.Name, r.Strategy, r.Problem)
		}
	}
	return failed
}
