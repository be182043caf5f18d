package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/emend/internal/engine"
	"github.com/roach88/emend/internal/journal"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Source string
	State  string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline on every settled change to the source file",
		Long: `Run the full pipeline once, then watch the source dataset and run again
each time the file settles after a change. Runs are strictly sequential:
at most one is in flight, and changes arriving mid-run trigger exactly one
follow-up run.

A failed run is logged and watching continues; the state snapshot on disk
is always a complete table from the last successful phase. Stop with
Ctrl-C.

Examples:
  emend watch
  emend watch --source data/observaciones.csv --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "source dataset CSV (overrides config)")
	cmd.Flags().StringVar(&opts.State, "state", "", "correction state CSV (overrides config)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	cfg, log, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	// Credential pre-flight, as for a single run.
	corrector, err := buildCorrector(cfg)
	if err != nil {
		return err
	}

	files := datasetFiles(cfg, opts.Source, opts.State)
	eng := engine.New(files, corrector, cfg.EngineConfig(), engine.WithLogger(log))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create file watcher", err)
	}
	defer watcher.Close()

	// Editors and atomic writers replace the file rather than write in
	// place, so watch the directory and filter events by name.
	sourceDir := filepath.Dir(files.SourcePath)
	sourceName := filepath.Base(files.SourcePath)
	if err := watcher.Add(sourceDir); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch source directory", err)
	}

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
			log.Info("received signal, stopping watch", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	debounce := time.Duration(cfg.Watch.Debounce)
	log.Info("watching source dataset",
		slog.String("path", files.SourcePath),
		slog.Duration("debounce", debounce))

	runOnce := func() {
		started := time.Now()
		report, err := eng.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("watched run failed", slog.String("error", err.Error()))
			return
		}
		recordRun(ctx, cfg.Journal, journal.RunRecord{
			ID:         newRunID(),
			StartedAt:  started,
			FinishedAt: time.Now(),
			Report:     report,
		}, log)
	}

	// First run covers whatever changed while nothing was watching.
	runOnce()

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != sourceName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("source changed", slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", slog.String("error", err.Error()))
		case <-timerC:
			timer = nil
			timerC = nil
			runOnce()
		}
	}
}
