package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/emend/internal/harvest"
)

// OffersOptions holds flags for the offers command.
type OffersOptions struct {
	*RootOptions
	From string
	Days int
	Out  string
}

// OffersResult is the offers command's output payload.
type OffersResult struct {
	From string `json:"from"`
	Days int    `json:"days"`
	Rows int    `json:"rows"`
	Path string `json:"path"`
}

// NewOffersCommand creates the offers command.
func NewOffersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OffersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Poll the per-date offerings grid into an NDJSON snapshot",
		Long: `Bootstrap the offerings page once for its postback state, then post one
direct-event refresh per date over the horizon and collect the grid rows.
Dates are fetched concurrently under a shared rate limit; any date failing
fails the command. Rows are written as NDJSON, one object per line.

Examples:
  emend offers
  emend offers --from 2026-03-02 --days 5 --out data/ofertas.ndjson`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffers(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first date to fetch, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "dates to fetch starting at --from (overrides config)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "offerings NDJSON path (overrides config)")

	return cmd
}

func runOffers(opts *OffersOptions, cmd *cobra.Command) error {
	cfg, log, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	from := time.Now()
	if opts.From != "" {
		from, err = time.Parse("2006-01-02", opts.From)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --from date %q", opts.From), err)
		}
	}
	days := cfg.Harvest.Days
	if opts.Days > 0 {
		days = opts.Days
	}
	out := cfg.Harvest.OffersOut
	if opts.Out != "" {
		out = opts.Out
	}
	if cfg.Harvest.OffersURL == "" {
		return NewExitError(ExitCommandError, "no offers URL configured (set harvest.offers_url)")
	}

	client := harvest.NewClient(harvest.ClientOptions{
		UserAgent: cfg.Harvest.UserAgent,
		Timeout:   time.Duration(cfg.Harvest.Timeout),
		Logger:    log,
	})
	poller, err := harvest.NewOffersClient(client, harvest.OffersOptions{
		PageURL:       cfg.Harvest.OffersURL,
		EventTarget:   cfg.Harvest.EventTarget,
		EventArgument: cfg.Harvest.EventArgument,
		Days:          days,
		RatePerSec:    cfg.Harvest.RatePerSec,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid offers configuration", err)
	}

	offerings, err := poller.FetchRange(cmd.Context(), from)
	if err != nil {
		return WrapExitError(ExitFailure, "offers poll failed", err)
	}
	if err := harvest.WriteOffers(out, offerings); err != nil {
		return WrapExitError(ExitFailure, "failed to write offerings", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return formatter.Success(OffersResult{
		From: from.Format("2006-01-02"),
		Days: days,
		Rows: len(offerings),
		Path: out,
	})
}

// String renders the offers result for text output.
func (r OffersResult) String() string {
	return fmt.Sprintf("Fetched %d offering(s) over %d day(s) from %s to %s", r.Rows, r.Days, r.From, r.Path)
}
