package engine

import (
	"context"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/emend/internal/oracle"
)

// BatchStat records the outcome of one dispatched batch.
type BatchStat struct {
	Attempt   int  `json:"attempt"`
	Index     int  `json:"index"`
	Size      int  `json:"size"`
	Satisfied int  `json:"satisfied"`
	Failed    bool `json:"failed"`
}

// dispatchAll sends the pending items to the backend in batches of at most
// cfg.BatchSize, in order. A failed batch is logged and skipped; it never
// aborts the pass. Only context cancellation returns an error.
func (e *Engine) dispatchAll(ctx context.Context, attempt int, pending []oracle.Item) (map[int64]string, []BatchStat, error) {
	accepted := make(map[int64]string)
	var stats []BatchStat

	for start, index := 0, 0; start < len(pending); start, index = start+e.cfg.BatchSize, index+1 {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		batch := pending[start:min(start+e.cfg.BatchSize, len(pending))]

		got, err := e.corrector.CorrectBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			e.log.Warn("batch failed, continuing",
				slog.Int("attempt", attempt),
				slog.Int("batch", index),
				slog.Int("size", len(batch)),
				slog.String("error", err.Error()))
			stats = append(stats, BatchStat{Attempt: attempt, Index: index, Size: len(batch), Failed: true})
			continue
		}

		ok, dropped := acceptCorrections(batch, got)
		if dropped > 0 {
			e.log.Debug("dropped invalid reply items",
				slog.Int("attempt", attempt),
				slog.Int("batch", index),
				slog.Int("dropped", dropped))
		}
		for id, text := range ok {
			accepted[id] = text
		}
		stats = append(stats, BatchStat{Attempt: attempt, Index: index, Size: len(batch), Satisfied: len(ok)})
	}
	return accepted, stats, nil
}

// acceptCorrections validates a batch reply against the ids that were sent.
// Unknown ids and empty corrections are dropped silently; a repeated id
// keeps the last value. Corrected text is NFC-normalized so the snapshot
// stays in one canonical form.
func acceptCorrections(sent []oracle.Item, got []oracle.Correction) (map[int64]string, int) {
	known := make(map[int64]bool, len(sent))
	for _, item := range sent {
		known[item.ID] = true
	}

	out := make(map[int64]string, len(got))
	dropped := 0
	for _, c := range got {
		if !known[c.ID] {
			dropped++
			continue
		}
		text := norm.NFC.String(c.Corrected)
		if text == "" {
			dropped++
			continue
		}
		out[c.ID] = text
	}
	return out, dropped
}
