package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/roach88/emend/internal/dataset"
	"github.com/roach88/emend/internal/engine"
	"github.com/roach88/emend/internal/oracle"
	"github.com/roach88/emend/internal/testutil"
)

// Harness executes scenarios against a real engine over datasets in a
// scratch directory.
type Harness struct {
	dir string
	log *slog.Logger
}

// Option configures the harness.
type Option func(*Harness)

// WithLogger routes engine logs to l. The default discards them: a scenario
// failure explains itself through the result.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.log = l
	}
}

// New creates a harness writing its datasets under dir. Tests pass
// t.TempDir().
func New(dir string, opts ...Option) *Harness {
	h := &Harness{
		dir: dir,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Result carries everything a scenario run produced.
type Result struct {
	// Report is the engine's run report.
	Report *engine.RunReport

	// FinalState is the snapshot on disk after the run, sorted by id.
	FinalState []StateRow

	// Calls lists every batch the backend received, in dispatch order.
	Calls [][]oracle.Item

	// Cooldowns counts the waits between passes (durations as requested
	// from the sleeper; the harness never actually waits).
	Cooldowns []time.Duration
}

// Run materializes the scenario's datasets, executes one engine run against
// the scripted backend, and reads back the final snapshot. Scenario
// expectations are not checked here; see Verify and RunWithGolden.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	files := dataset.Files{
		SourcePath: filepath.Join(h.dir, s.Name+"_source.csv"),
		StatePath:  filepath.Join(h.dir, s.Name+"_state.csv"),
	}
	if err := writeSource(files.SourcePath, s.Source); err != nil {
		return nil, fmt.Errorf("write scenario source: %w", err)
	}
	if len(s.State) > 0 {
		if err := dataset.WriteState(files.StatePath, stateRecords(s.State)); err != nil {
			return nil, fmt.Errorf("write scenario state: %w", err)
		}
	}

	corrector := testutil.NewScriptedCorrector(scriptReplies(s.Replies)...)
	spy := &testutil.SleeperSpy{}
	eng := engine.New(files, corrector,
		engine.Config{
			MaxAttempts: s.Retry.MaxAttempts,
			BatchSize:   s.Retry.BatchSize,
		},
		engine.WithSleeper(spy),
		engine.WithLogger(h.log))

	report, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}

	final, err := files.LoadState()
	if err != nil {
		return nil, fmt.Errorf("read final snapshot: %w", err)
	}

	return &Result{
		Report:     report,
		FinalState: stateRows(final),
		Calls:      corrector.Calls(),
		Cooldowns:  spy.Slept(),
	}, nil
}

// writeSource writes the scenario's live dataset with the feed's column
// name, so the loader's column aliasing stays on the tested path.
func writeSource(path string, rows []SourceRow) error {
	table := make([][]string, len(rows))
	for i, row := range rows {
		table[i] = []string{strconv.FormatInt(row.ID, 10), row.Text}
	}
	return dataset.WriteTable(path, []string{"id", "observaciones"}, table)
}

func stateRecords(rows []StateRow) []dataset.PersistedRecord {
	records := make([]dataset.PersistedRecord, len(rows))
	for i, row := range rows {
		records[i] = dataset.PersistedRecord{ID: row.ID, Original: row.Original, Corrected: row.Corrected}
	}
	return records
}

func stateRows(records []dataset.PersistedRecord) []StateRow {
	rows := make([]StateRow, len(records))
	for i, rec := range records {
		rows[i] = StateRow{ID: rec.ID, Original: rec.Original, Corrected: rec.Corrected}
	}
	return rows
}

// scriptReplies converts scenario reply steps into the scripted corrector's
// reply form.
func scriptReplies(steps []ReplyStep) []testutil.Reply {
	replies := make([]testutil.Reply, len(steps))
	for i, step := range steps {
		if step.Fail {
			replies[i] = testutil.Reply{Err: &oracle.TransientError{
				Op:  "scripted batch",
				Err: fmt.Errorf("scenario reply %d fails", i),
			}}
			continue
		}
		corrections := make([]oracle.Correction, len(step.Corrections))
		for j, c := range step.Corrections {
			corrections[j] = oracle.Correction{ID: c.ID, Corrected: c.Text}
		}
		replies[i] = testutil.Reply{Corrections: corrections}
	}
	return replies
}
