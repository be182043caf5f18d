package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/emend/internal/engine"
	"github.com/roach88/emend/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Source string
	State  string

	// NewRunID overrides journal run id generation (for testing).
	// If nil, defaults to UUIDv7.
	NewRunID func() string
	// Now overrides the journal timestamp source (for testing).
	Now func() time.Time
}

// RunResult is the run command's output payload.
type RunResult struct {
	RunID  string            `json:"run_id"`
	Report *engine.RunReport `json:"report"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the dataset and correct pending records",
		Long: `Run the full pipeline once: reconcile the source dataset against the
persisted correction state, then send still-pending records to the
correction backend in bounded batches with retries, and merge the results.

Records left unresolved after the attempt limit stay pending and are picked
up by the next run; that is reported, not an error.

Exit codes:
  0 - Run completed (including "nothing pending" and unresolved leftovers)
  1 - Run failed mid-flight (snapshot write failure, interrupted)
  2 - Command error (bad config, missing credential, schema violation)

Examples:
  emend run
  emend run --source data/observaciones.csv --state data/corregidas.csv
  emend run --config ./emend.yml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "source dataset CSV (overrides config)")
	cmd.Flags().StringVar(&opts.State, "state", "", "correction state CSV (overrides config)")

	return cmd
}

func runRun(opts *RunOptions, cmd *cobra.Command) error {
	cfg, log, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	// Credential pre-flight happens before any dataset I/O.
	corrector, err := buildCorrector(cfg)
	if err != nil {
		return err
	}

	files := datasetFiles(cfg, opts.Source, opts.State)
	eng := engine.New(files, corrector, cfg.EngineConfig(), engine.WithLogger(log))

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping run", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewRunID
	if newID == nil {
		newID = newRunID
	}

	started := now()
	report, err := eng.Run(ctx)
	if err != nil {
		return classifyRunError(err)
	}

	runID := newID()
	recordRun(ctx, cfg.Journal, journal.RunRecord{
		ID:         runID,
		StartedAt:  started,
		FinishedAt: now(),
		Report:     report,
	}, log)

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return formatter.Success(RunResult{RunID: runID, Report: report})
}

// String renders the run result for text output.
func (r RunResult) String() string {
	var b strings.Builder
	rep := r.Report

	fmt.Fprintf(&b, "Run %s: %s", r.RunID, rep.Outcome)
	if rep.Attempts > 0 {
		fmt.Fprintf(&b, " (%d attempt(s))", rep.Attempts)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "  Reconciled:  %d\n", rep.Reconciled)
	fmt.Fprintf(&b, "  Added:       %d\n", rep.Added)
	fmt.Fprintf(&b, "  Invalidated: %d\n", rep.Invalidated)
	fmt.Fprintf(&b, "  Removed:     %d\n", rep.Removed)
	fmt.Fprintf(&b, "  Pending:     %d\n", rep.Pending)
	fmt.Fprintf(&b, "  Resolved:    %d\n", rep.Resolved)
	fmt.Fprintf(&b, "  Unresolved:  %d", rep.Unresolved)
	return b.String()
}
