package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/emend/internal/engine"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	Source string
	State  string
}

// ReconcileResult is the reconcile command's output payload.
type ReconcileResult struct {
	Reconciled  int `json:"reconciled"`
	Added       int `json:"added"`
	Invalidated int `json:"invalidated"`
	Removed     int `json:"removed"`
	Pending     int `json:"pending"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile the dataset without calling the correction backend",
		Long: `Diff the source dataset against the persisted correction state and
write the reconciled snapshot: removed ids are dropped, changed texts are
reset to pending, new ids enter as pending. No backend traffic.

Useful as a dry look at how much work a full run would dispatch, and as the
standalone first phase before an unattended run.

Examples:
  emend reconcile
  emend reconcile --source data/observaciones.csv --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "source dataset CSV (overrides config)")
	cmd.Flags().StringVar(&opts.State, "state", "", "correction state CSV (overrides config)")

	return cmd
}

func runReconcile(opts *ReconcileOptions, cmd *cobra.Command) error {
	cfg, log, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	files := datasetFiles(cfg, opts.Source, opts.State)
	source, err := files.LoadSource()
	if err != nil {
		return classifyRunError(err)
	}
	persisted, err := files.LoadState()
	if err != nil {
		return classifyRunError(err)
	}

	rec := engine.Reconcile(source, persisted)
	if err := files.WriteState(rec.Records); err != nil {
		return classifyRunError(err)
	}
	pending := engine.PendingOf(rec.Records)

	log.Info("reconciled dataset",
		"records", len(rec.Records),
		"added", rec.Added,
		"invalidated", rec.Invalidated,
		"removed", rec.Removed,
		"pending", len(pending))

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return formatter.Success(ReconcileResult{
		Reconciled:  len(rec.Records),
		Added:       rec.Added,
		Invalidated: rec.Invalidated,
		Removed:     rec.Removed,
		Pending:     len(pending),
	})
}

// String renders the reconcile result for text output.
func (r ReconcileResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconciled %d record(s)\n", r.Reconciled)
	fmt.Fprintf(&b, "  Added:       %d\n", r.Added)
	fmt.Fprintf(&b, "  Invalidated: %d\n", r.Invalidated)
	fmt.Fprintf(&b, "  Removed:     %d\n", r.Removed)
	fmt.Fprintf(&b, "  Pending:     %d", r.Pending)
	return b.String()
}
