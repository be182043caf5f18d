package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/emend/internal/engine"
)

// Run is one stored run row.
type Run struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Outcome     string    `json:"outcome"`
	Reconciled  int       `json:"reconciled"`
	StateRows   int       `json:"state_rows"`
	Added       int       `json:"added"`
	Invalidated int       `json:"invalidated"`
	Removed     int       `json:"removed"`
	Pending     int       `json:"pending"`
	Resolved    int       `json:"resolved"`
	Unresolved  int       `json:"unresolved"`
	Attempts    int       `json:"attempts"`
}

// RecentRuns returns up to limit runs, newest first. limit <= 0 selects 20.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, outcome,
		       reconciled, state_rows, added, invalidated, removed,
		       pending, resolved, unresolved, attempts
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(
			&r.ID, &started, &finished, &r.Outcome,
			&r.Reconciled, &r.StateRows, &r.Added, &r.Invalidated, &r.Removed,
			&r.Pending, &r.Resolved, &r.Unresolved, &r.Attempts,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse run %s started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse run %s finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// RunBatches returns the per-batch stats of one run, in dispatch order.
func (j *Journal) RunBatches(ctx context.Context, runID string) ([]engine.BatchStat, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT attempt, batch_index, size, satisfied, failed
		FROM batches
		WHERE run_id = ?
		ORDER BY attempt, batch_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	stats := []engine.BatchStat{}
	for rows.Next() {
		var b engine.BatchStat
		if err := rows.Scan(&b.Attempt, &b.Index, &b.Size, &b.Satisfied, &b.Failed); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		stats = append(stats, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}

	return stats, nil
}
