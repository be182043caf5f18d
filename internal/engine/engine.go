package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/emend/internal/dataset"
	"github.com/roach88/emend/internal/oracle"
)

// Default retry parameters.
const (
	DefaultMaxAttempts = 3
	DefaultBatchSize   = 100
	DefaultCooldown    = 10 * time.Second
)

// Config bounds the correction phase.
type Config struct {
	MaxAttempts int           // passes over the remaining items, minimum 1
	BatchSize   int           // items per backend call, minimum 1
	Cooldown    time.Duration // pause between passes
}

// withDefaults replaces out-of-range values with the defaults.
func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BatchSize < 1 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Cooldown < 0 {
		c.Cooldown = DefaultCooldown
	}
	return c
}

// Engine runs the reconciliation and correction pipeline over a fixed pair
// of dataset files and a single correction backend.
type Engine struct {
	data      dataset.Files
	corrector oracle.Corrector
	cfg       Config
	sleeper   Sleeper
	log       *slog.Logger
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithLogger routes engine logs to l instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithSleeper replaces the wall-clock cooldown. Used by tests to observe
// cooldowns without waiting through them.
func WithSleeper(s Sleeper) Option {
	return func(e *Engine) {
		e.sleeper = s
	}
}

// New creates an Engine over the given files and backend. Out-of-range
// config values fall back to the defaults.
func New(data dataset.Files, corrector oracle.Corrector, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		data:      data,
		corrector: corrector,
		cfg:       cfg.withDefaults(),
		sleeper:   realSleeper{},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunReport summarizes one run for operators and the run journal.
type RunReport struct {
	Reconciled  int         `json:"reconciled"` // rows in the reconciled table, one per source id
	StateRows   int         `json:"state_rows"` // rows loaded from the previous snapshot
	Added       int         `json:"added"`
	Invalidated int         `json:"invalidated"`
	Removed     int         `json:"removed"`
	Pending     int         `json:"pending"`    // rows needing correction after reconciling
	Resolved    int         `json:"resolved"`   // rows filled this run
	Unresolved  int         `json:"unresolved"` // rows still pending at the end
	Attempts    int         `json:"attempts"`
	Outcome     Outcome     `json:"outcome"`
	Batches     []BatchStat `json:"batches,omitempty"`
}

// Run executes the full pipeline once: load, reconcile, checkpoint,
// correct, merge, write. Unresolved rows are reported, not errors; a run
// fails only on schema errors, snapshot write failures, and context
// cancellation.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	source, err := e.data.LoadSource()
	if err != nil {
		return nil, err
	}
	persisted, err := e.data.LoadState()
	if err != nil {
		return nil, err
	}

	rec := Reconcile(source, persisted)
	e.log.Info("reconciled dataset",
		slog.Int("records", len(rec.Records)),
		slog.Int("added", rec.Added),
		slog.Int("invalidated", rec.Invalidated),
		slog.Int("removed", rec.Removed))

	// Checkpoint before any backend traffic so removals and invalidations
	// reach disk even if the correction phase never finishes.
	if err := e.data.WriteState(rec.Records); err != nil {
		return nil, err
	}

	pending := PendingOf(rec.Records)
	report := &RunReport{
		Reconciled:  len(rec.Records),
		StateRows:   len(persisted),
		Added:       rec.Added,
		Invalidated: rec.Invalidated,
		Removed:     rec.Removed,
		Pending:     len(pending),
	}

	proc, err := e.process(ctx, pending)
	if err != nil {
		return nil, err
	}
	report.Attempts = proc.Attempts
	report.Outcome = proc.Outcome
	report.Batches = proc.Batches

	if len(proc.Corrections) > 0 {
		merged, filled := Merge(rec.Records, proc.Corrections)
		if err := e.data.WriteState(merged); err != nil {
			return nil, err
		}
		report.Resolved = filled
	}
	report.Unresolved = report.Pending - report.Resolved

	switch {
	case report.Outcome == OutcomeNothingPending:
		e.log.Info("nothing pending")
	case report.Unresolved > 0:
		e.log.Warn("run finished with unresolved records",
			slog.Int("resolved", report.Resolved),
			slog.Int("unresolved", report.Unresolved),
			slog.Int("attempts", report.Attempts))
	default:
		e.log.Info("run finished",
			slog.Int("resolved", report.Resolved),
			slog.Int("attempts", report.Attempts))
	}
	return report, nil
}
