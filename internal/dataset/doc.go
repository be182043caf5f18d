// Package dataset reads and writes the two tabular files an engine run
// operates on: the source dataset (the external producer's current truth)
// and the persisted correction state (the engine's sole mutable state).
//
// Both files are CSV with a header row:
//   - Source: required columns "id" (int64) and a text column named either
//     "text" or "observaciones". Extra columns are ignored.
//   - State: required columns "id", "original_text", "corrected_text".
//     An empty corrected_text field means the record is still pending.
//
// # Loading Rules
//
//   - The source file is mandatory; a missing state file means first run
//     and loads as an empty table.
//   - Duplicate ids within one file deduplicate last-write-wins, and the
//     loaded table is sorted by id. Loading is therefore deterministic for
//     any input ordering.
//   - Missing columns, unreadable rows, and non-integer ids surface as
//     *SchemaError. Loaders never partially succeed.
//
// # Writing Rules
//
// State writes are wholesale snapshot rewrites, never appends: the table is
// written to a temp file in the target directory, fsynced, and renamed over
// the previous snapshot. A reader never observes a half-written table.
// Failed writes surface as *WriteError and leave the previous snapshot
// intact.
package dataset
