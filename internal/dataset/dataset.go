package dataset

// SourceRecord is one row of the source dataset: the current truth for a
// record's raw content. The engine only reads these.
type SourceRecord struct {
	ID   int64
	Text string
}

// PersistedRecord is one row of the engine's durable state. Original holds
// the source text as of the last reconciliation pass that observed it;
// Corrected holds the oracle's output.
//
// The empty string in Corrected means "pending": the CSV representation
// cannot distinguish empty from absent, so empty corrections are rejected at
// response validation and never stored. A non-empty Corrected always
// corresponds to the Original currently stored.
type PersistedRecord struct {
	ID        int64
	Original  string
	Corrected string
}

// Pending reports whether the record still needs a correction.
func (r PersistedRecord) Pending() bool {
	return r.Corrected == ""
}

// Files bundles the dataset paths an engine run operates on.
type Files struct {
	SourcePath string
	StatePath  string
}

// LoadSource reads the source dataset.
func (f Files) LoadSource() ([]SourceRecord, error) {
	return LoadSource(f.SourcePath)
}

// LoadState reads the persisted state, empty on first run.
func (f Files) LoadState() ([]PersistedRecord, error) {
	return LoadState(f.StatePath)
}

// WriteState replaces the persisted state snapshot.
func (f Files) WriteState(records []PersistedRecord) error {
	return WriteState(f.StatePath, records)
}
