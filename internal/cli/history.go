package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/emend/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	Limit   int
}

// HistoryResult is the history command's output payload.
type HistoryResult struct {
	Runs []journal.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run journal",
		Long: `List recent engine runs recorded in the SQLite run journal, newest
first. The journal is observability only: it records what each run did,
while the CSV state snapshot stays the engine's source of truth.

Examples:
  emend history
  emend history --limit 5 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal database path (overrides config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	cfg, _, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	path := cfg.Journal
	if opts.Journal != "" {
		path = opts.Journal
	}
	if path == "" {
		return NewExitError(ExitCommandError, "journaling is disabled (set journal in the config or pass --journal)")
	}

	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run journal", err)
	}
	defer j.Close()

	runs, err := j.RecentRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read run journal", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return formatter.Success(HistoryResult{Runs: runs})
}

// String renders the run history for text output.
func (r HistoryResult) String() string {
	if len(r.Runs) == 0 {
		return "No runs recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-20s  %-15s  %9s  %8s  %10s\n",
		"RUN", "STARTED", "OUTCOME", "PENDING", "RESOLVED", "UNRESOLVED")
	for _, run := range r.Runs {
		fmt.Fprintf(&b, "%-36s  %-20s  %-15s  %9d  %8d  %10d\n",
			run.ID,
			run.StartedAt.UTC().Format(time.DateTime),
			run.Outcome,
			run.Pending, run.Resolved, run.Unresolved)
	}
	return strings.TrimRight(b.String(), "\n")
}
