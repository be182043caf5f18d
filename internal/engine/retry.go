package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/emend/internal/oracle"
)

// Outcome labels how a run's correction phase ended.
type Outcome string

const (
	OutcomeDone           Outcome = "done"            // every pending row corrected within the attempt limit
	OutcomeExhausted      Outcome = "exhausted"       // attempt limit passed with rows still pending
	OutcomeNothingPending Outcome = "nothing_pending" // reconciled table had nothing to correct
)

// retryState tags the correction loop's state machine.
type retryState int

const (
	stateAttempting retryState = iota // a pass is about to run
	stateDone                         // nothing remains
	stateExhausted                    // attempts used up with items remaining
)

// ProcessResult is the outcome of the correction phase.
type ProcessResult struct {
	Corrections map[int64]string // accepted corrections keyed by id
	Attempts    int              // passes actually made
	Outcome     Outcome
	Batches     []BatchStat
}

// process drives the pending items through the backend. Each pass dispatches
// only the items still unsatisfied, with a cooldown between passes. The loop
// moves from attempting to done when nothing remains, or to exhausted when
// the attempt limit passes first. An id satisfied in an earlier pass is
// never dispatched again and its correction is never overwritten. Only
// context cancellation returns an error.
func (e *Engine) process(ctx context.Context, pending []oracle.Item) (*ProcessResult, error) {
	res := &ProcessResult{Corrections: make(map[int64]string)}
	if len(pending) == 0 {
		res.Outcome = OutcomeNothingPending
		return res, nil
	}

	remaining := pending
	state := stateAttempting
	for attempt := 1; state == stateAttempting; attempt++ {
		res.Attempts = attempt
		e.log.Info("dispatching pass",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", e.cfg.MaxAttempts),
			slog.Int("remaining", len(remaining)))

		accepted, stats, err := e.dispatchAll(ctx, attempt, remaining)
		res.Batches = append(res.Batches, stats...)
		if err != nil {
			return nil, err
		}
		for id, text := range accepted {
			if _, satisfied := res.Corrections[id]; !satisfied {
				res.Corrections[id] = text
			}
		}
		remaining = unsatisfied(remaining, res.Corrections)

		switch {
		case len(remaining) == 0:
			state = stateDone
		case attempt >= e.cfg.MaxAttempts:
			state = stateExhausted
		default:
			e.log.Info("cooling down",
				slog.Duration("cooldown", e.cfg.Cooldown),
				slog.Int("remaining", len(remaining)))
			if err := e.sleeper.Sleep(ctx, e.cfg.Cooldown); err != nil {
				return nil, err
			}
		}
	}

	if state == stateDone {
		res.Outcome = OutcomeDone
	} else {
		res.Outcome = OutcomeExhausted
	}
	return res, nil
}

// unsatisfied filters the items that still lack an accepted correction.
func unsatisfied(items []oracle.Item, corrections map[int64]string) []oracle.Item {
	var left []oracle.Item
	for _, item := range items {
		if _, ok := corrections[item.ID]; !ok {
			left = append(left, item)
		}
	}
	return left
}
