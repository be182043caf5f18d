package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/emend/internal/harvest"
)

// HarvestOptions holds flags for the harvest command.
type HarvestOptions struct {
	*RootOptions
	URL string
	Out string
}

// HarvestResult is the harvest command's output payload.
type HarvestResult struct {
	Listings int    `json:"listings"`
	Path     string `json:"path"`
}

// NewHarvestCommand creates the harvest command.
func NewHarvestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HarvestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Scrape the announcements page into a listings CSV",
		Long: `Fetch the announcements page and extract its listing table into a CSV
of title,url rows. Zero extracted listings fails the command so layout
drift on the portal is loud instead of silently emptying the snapshot.

Examples:
  emend harvest
  emend harvest --url https://example.org/actos/ --out data/listados.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "announcements page URL (overrides config)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "listings CSV path (overrides config)")

	return cmd
}

func runHarvest(opts *HarvestOptions, cmd *cobra.Command) error {
	cfg, log, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	pageURL := cfg.Harvest.ListingURL
	if opts.URL != "" {
		pageURL = opts.URL
	}
	if pageURL == "" {
		return NewExitError(ExitCommandError, "no listing URL configured (set harvest.listing_url or pass --url)")
	}
	out := cfg.Harvest.ListingsOut
	if opts.Out != "" {
		out = opts.Out
	}

	client := harvest.NewClient(harvest.ClientOptions{
		UserAgent: cfg.Harvest.UserAgent,
		Timeout:   time.Duration(cfg.Harvest.Timeout),
		Logger:    log,
	})

	listings, err := client.FetchListings(cmd.Context(), pageURL)
	if err != nil {
		return WrapExitError(ExitFailure, "harvest failed", err)
	}
	if err := harvest.WriteListings(out, listings); err != nil {
		return WrapExitError(ExitFailure, "failed to write listings", err)
	}

	log.Info("wrote listings", "count", len(listings), "path", out)

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return formatter.Success(HarvestResult{Listings: len(listings), Path: out})
}

// String renders the harvest result for text output.
func (r HarvestResult) String() string {
	return fmt.Sprintf("Harvested %d listing(s) to %s", r.Listings, r.Path)
}
