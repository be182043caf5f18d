package engine

import "github.com/roach88/emend/internal/dataset"

// Merge fills pending rows from the accepted corrections and returns the new
// table plus the number of rows filled. Rows already carrying a correction
// are returned untouched even when the corrections map names them, and with
// an empty map the result is an exact copy of the input.
func Merge(records []dataset.PersistedRecord, corrections map[int64]string) ([]dataset.PersistedRecord, int) {
	merged := make([]dataset.PersistedRecord, len(records))
	filled := 0
	for i, rec := range records {
		if rec.Pending() {
			if text, ok := corrections[rec.ID]; ok && text != "" {
				rec.Corrected = text
				filled++
			}
		}
		merged[i] = rec
	}
	return merged, filled
}
