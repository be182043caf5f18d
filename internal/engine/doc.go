// Package engine reconciles a live source dataset against persisted
// correction state and drives pending records through the correction backend.
//
// A run proceeds in fixed order:
//
//  1. Load the source and state files.
//  2. Reconcile: drop state rows whose id left the source, reset rows whose
//     live text changed, add rows for new ids.
//  3. Checkpoint the reconciled table to disk.
//  4. Dispatch pending rows to the backend in bounded batches, retrying the
//     remainder up to the attempt limit with a cooldown between passes.
//  5. Merge accepted corrections into the table and write the final snapshot.
//
// GUARANTEES:
//
// Running twice against an unchanged source and backend leaves the state
// file identical. Reconciliation never invents or keeps rows: after step 2
// the table holds exactly the source ids. A row that already carries a
// correction is never sent to the backend again and never overwritten by a
// later batch. A pass that yields no corrections leaves the checkpoint from
// step 3 untouched on disk.
//
// The run loop is strictly single-threaded: batches go out one at a time in
// ascending id order, so backend effects and logs are reproducible.
//
// Backend failures are absorbed per batch and surface only in the run
// report. Context cancellation and snapshot write failures abort a run.
package engine
