package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/emend/internal/dataset"
	"github.com/roach88/emend/internal/oracle"
	"github.com/roach88/emend/internal/testutil"
)

// runFixture wires an engine over a temp dataset. Source and state files are
// created only when their content is non-empty.
type runFixture struct {
	files dataset.Files
	spy   *testutil.SleeperSpy
}

func newRunFixture(t *testing.T, source, state string) *runFixture {
	t.Helper()
	dir := t.TempDir()
	f := &runFixture{
		files: dataset.Files{
			SourcePath: filepath.Join(dir, "source.csv"),
			StatePath:  filepath.Join(dir, "state.csv"),
		},
		spy: &testutil.SleeperSpy{},
	}
	if source != "" {
		require.NoError(t, os.WriteFile(f.files.SourcePath, []byte(source), 0o644))
	}
	if state != "" {
		require.NoError(t, os.WriteFile(f.files.StatePath, []byte(state), 0o644))
	}
	return f
}

func (f *runFixture) engine(c oracle.Corrector, cfg Config) *Engine {
	return New(f.files, c, cfg,
		WithSleeper(f.spy),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (f *runFixture) stateBytes(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(f.files.StatePath)
	require.NoError(t, err)
	return data
}

// TestRun_FirstRunResolvesAcrossAttempts tests a first run where the backend
// needs two passes to cover both records.
func TestRun_FirstRunResolvesAcrossAttempts(t *testing.T) {
	fixture := newRunFixture(t, "id,observaciones\n1,Hola  mundo\n2,buenos dias.\n", "")
	corrector := testutil.NewScriptedCorrector(
		testutil.Reply{Corrections: []oracle.Correction{{ID: 1, Corrected: "Hola mundo."}}},
		testutil.Reply{Corrections: []oracle.Correction{{ID: 2, Corrected: "Buenos días."}}},
	)
	e := fixture.engine(corrector, Config{MaxAttempts: 3, BatchSize: 100, Cooldown: 10 * time.Second})

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Reconciled)
	assert.Equal(t, 0, report.StateRows)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 2, report.Pending)
	assert.Equal(t, 2, report.Resolved)
	assert.Equal(t, 0, report.Unresolved)
	assert.Equal(t, 2, report.Attempts)
	assert.Equal(t, OutcomeDone, report.Outcome)

	state, err := fixture.files.LoadState()
	require.NoError(t, err)
	assert.Equal(t, []dataset.PersistedRecord{
		{ID: 1, Original: "Hola  mundo", Corrected: "Hola mundo."},
		{ID: 2, Original: "buenos dias.", Corrected: "Buenos días."},
	}, state)

	assert.Equal(t, []time.Duration{10 * time.Second}, fixture.spy.Slept())
}

// TestRun_ChangedTextInvalidatesCorrection tests that source drift resets a
// resolved row and reaches disk even when the backend produces nothing.
func TestRun_ChangedTextInvalidatesCorrection(t *testing.T) {
	fixture := newRunFixture(t,
		"id,text\n5,foo bar\n",
		"id,original_text,corrected_text\n5,foo,Foo.\n")
	e := fixture.engine(testutil.NewScriptedCorrector(), Config{MaxAttempts: 1, BatchSize: 100})

	report, err := e.Run(context.Background())
	require.NoError(t, err, "unresolved rows are reported, not fatal")

	assert.Equal(t, 1, report.StateRows)
	assert.Equal(t, 1, report.Invalidated)
	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 0, report.Resolved)
	assert.Equal(t, 1, report.Unresolved)
	assert.Equal(t, OutcomeExhausted, report.Outcome)

	state, err := fixture.files.LoadState()
	require.NoError(t, err)
	assert.Equal(t, []dataset.PersistedRecord{
		{ID: 5, Original: "foo bar", Corrected: ""},
	}, state)
}

// TestRun_SecondRunIsIdempotent tests that a run over a fully resolved,
// unchanged dataset touches nothing and calls no backend.
func TestRun_SecondRunIsIdempotent(t *testing.T) {
	fixture := newRunFixture(t, "id,text\n1,hola\n2,chau\n", "")
	first := testutil.NewScriptedCorrector(
		testutil.Reply{Corrections: []oracle.Correction{
			{ID: 1, Corrected: "Hola."},
			{ID: 2, Corrected: "Chau."},
		}},
	)
	_, err := fixture.engine(first, Config{MaxAttempts: 3, BatchSize: 100}).Run(context.Background())
	require.NoError(t, err)
	before := fixture.stateBytes(t)

	second := testutil.NewScriptedCorrector()
	report, err := fixture.engine(second, Config{MaxAttempts: 3, BatchSize: 100}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNothingPending, report.Outcome)
	assert.Equal(t, 0, report.Pending)
	assert.Empty(t, second.Calls(), "resolved rows never go back to the backend")
	assert.Equal(t, before, fixture.stateBytes(t), "snapshot must be byte-identical")
}

// TestRun_RemovedIDCascades tests that an id gone from the source leaves the
// snapshot on the next run.
func TestRun_RemovedIDCascades(t *testing.T) {
	fixture := newRunFixture(t,
		"id,text\n1,queda\n",
		"id,original_text,corrected_text\n1,queda,Queda.\n2,se fue,Se fue.\n")
	e := fixture.engine(testutil.NewScriptedCorrector(), Config{MaxAttempts: 1, BatchSize: 100})

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, OutcomeNothingPending, report.Outcome)

	state, err := fixture.files.LoadState()
	require.NoError(t, err)
	assert.Equal(t, []dataset.PersistedRecord{
		{ID: 1, Original: "queda", Corrected: "Queda."},
	}, state)
}

// TestRun_FailedBatchesConserveRows tests that a fully failing backend still
// leaves every source row in the snapshot, pending.
func TestRun_FailedBatchesConserveRows(t *testing.T) {
	fixture := newRunFixture(t, "id,text\n1,uno\n2,dos\n3,tres\n", "")
	corrector := correctorFunc(func(context.Context, []oracle.Item) ([]oracle.Correction, error) {
		return nil, &oracle.TransientError{Op: "chat completion", Err: errors.New("down")}
	})
	e := fixture.engine(corrector, Config{MaxAttempts: 2, BatchSize: 2})

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, report.Outcome)
	assert.Equal(t, 3, report.Unresolved)
	require.Len(t, report.Batches, 4, "two batches per attempt, two attempts")
	for _, stat := range report.Batches {
		assert.True(t, stat.Failed)
	}

	state, err := fixture.files.LoadState()
	require.NoError(t, err)
	require.Len(t, state, 3)
	for _, rec := range state {
		assert.True(t, rec.Pending())
	}
}

func TestRun_MissingSourceIsFatal(t *testing.T) {
	fixture := newRunFixture(t, "", "")
	e := fixture.engine(testutil.NewScriptedCorrector(), Config{})

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, dataset.IsSchemaError(err))
}

func TestRun_ContextCancelled(t *testing.T) {
	fixture := newRunFixture(t, "id,text\n1,uno\n", "")
	e := fixture.engine(testutil.NewScriptedCorrector(), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	state, err := fixture.files.LoadState()
	require.NoError(t, err)
	require.Len(t, state, 1, "reconciled checkpoint still reaches disk")
	assert.True(t, state[0].Pending())
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, time.Duration(0), cfg.Cooldown, "zero cooldown is a valid choice")

	cfg = Config{MaxAttempts: -1, BatchSize: 0, Cooldown: -time.Second}.withDefaults()
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultCooldown, cfg.Cooldown)
}
