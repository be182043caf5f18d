package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/emend/internal/engine"
)

// timeFormat is RFC 3339 with a fixed-width fraction, so stored times sort
// lexicographically in chronological order (RFC3339Nano trims zeros and does
// not).
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// RunRecord is one completed run bound for the journal.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Report     *engine.RunReport
}

// RecordRun appends the run and its batches in one transaction. Times are
// stored as UTC RFC 3339 text.
func (j *Journal) RecordRun(ctx context.Context, rec RunRecord) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback()

	r := rec.Report
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, outcome,
			reconciled, state_rows, added, invalidated, removed,
			pending, resolved, unresolved, attempts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UTC().Format(timeFormat),
		rec.FinishedAt.UTC().Format(timeFormat),
		string(r.Outcome),
		r.Reconciled, r.StateRows, r.Added, r.Invalidated, r.Removed,
		r.Pending, r.Resolved, r.Unresolved, r.Attempts,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, b := range r.Batches {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO batches (run_id, attempt, batch_index, size, satisfied, failed)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, b.Attempt, b.Index, b.Size, b.Satisfied, b.Failed,
		)
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}
	return nil
}
