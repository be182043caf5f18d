package engine

import (
	"sort"

	"github.com/roach88/emend/internal/dataset"
	"github.com/roach88/emend/internal/oracle"
)

// ReconcileResult is the working table after aligning state with the live
// source, plus counts of what changed.
type ReconcileResult struct {
	// Records holds exactly one row per source id, sorted by id.
	Records     []dataset.PersistedRecord
	Added       int // ids present in the source but not in the state
	Invalidated int // ids whose live text diverged from the stored original
	Removed     int // ids present in the state but gone from the source
}

// Reconcile aligns persisted state with the live source. The source is the
// sole authority on which ids exist and what their original text is:
//
//   - rows whose id left the source are dropped,
//   - rows whose live text changed are reset to pending with the new text,
//   - ids new to the source enter as pending rows,
//   - untouched rows keep their correction.
//
// Both inputs are read only; the result is a fresh slice.
func Reconcile(source []dataset.SourceRecord, persisted []dataset.PersistedRecord) ReconcileResult {
	byID := make(map[int64]dataset.PersistedRecord, len(persisted))
	for _, rec := range persisted {
		byID[rec.ID] = rec
	}

	res := ReconcileResult{Records: make([]dataset.PersistedRecord, 0, len(source))}
	for _, src := range source {
		old, known := byID[src.ID]
		switch {
		case !known:
			res.Added++
			res.Records = append(res.Records, dataset.PersistedRecord{ID: src.ID, Original: src.Text})
		case old.Original != src.Text:
			res.Invalidated++
			res.Records = append(res.Records, dataset.PersistedRecord{ID: src.ID, Original: src.Text})
		default:
			res.Records = append(res.Records, old)
		}
		delete(byID, src.ID)
	}
	res.Removed = len(byID)

	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].ID < res.Records[j].ID
	})
	return res
}

// PendingOf lists the rows still awaiting a correction as backend items, in
// table order.
func PendingOf(records []dataset.PersistedRecord) []oracle.Item {
	var pending []oracle.Item
	for _, rec := range records {
		if rec.Pending() {
			pending = append(pending, oracle.Item{ID: rec.ID, Text: rec.Original})
		}
	}
	return pending
}
