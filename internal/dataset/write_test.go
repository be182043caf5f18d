package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteState_RoundTrip tests that a written snapshot loads back unchanged.
func TestWriteState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.csv")
	records := []PersistedRecord{
		{ID: 1, Original: "hola  mundo", Corrected: "Hola mundo."},
		{ID: 2, Original: "tiene, coma", Corrected: ""},
		{ID: 7, Original: `dice "hola"`, Corrected: `Dice "hola".`},
		{ID: 12, Original: "línea uno\nlínea dos", Corrected: "Línea uno. Línea dos."},
	}

	require.NoError(t, WriteState(path, records))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

// TestWriteState_Golden pins the exact on-disk snapshot format.
func TestWriteState_Golden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.csv")
	records := []PersistedRecord{
		{ID: 1, Original: "hola  mundo", Corrected: "Hola mundo."},
		{ID: 2, Original: "tiene, coma", Corrected: ""},
		{ID: 7, Original: `dice "hola"`, Corrected: `Dice "hola".`},
	}

	require.NoError(t, WriteState(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "state_snapshot", data)
}

// TestWriteState_EmptyTable tests that an empty table still writes a header.
func TestWriteState_EmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.csv")

	require.NoError(t, WriteState(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,original_text,corrected_text\n", string(data))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

// TestWriteState_CreatesParentDir tests that missing directories are created.
func TestWriteState_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "state.csv")

	require.NoError(t, WriteState(path, []PersistedRecord{{ID: 1, Original: "a"}}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

// TestWriteAtomic_FailureKeepsPrevious tests that a failed write leaves the
// previous snapshot intact and no temp files behind.
func TestWriteAtomic_FailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	boom := errors.New("boom")
	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})

	require.Error(t, err)
	assert.True(t, IsWriteError(err))
	assert.ErrorIs(t, err, boom)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "previous\n", string(data), "previous snapshot must survive a failed write")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1, "temp file should be cleaned up")
	assert.Equal(t, "state.csv", entries[0].Name())
}

// TestWriteAtomic_ParentIsFile tests the error path when the directory cannot
// be created.
func TestWriteAtomic_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteAtomic(filepath.Join(blocker, "state.csv"), func(w io.Writer) error {
		return nil
	})

	require.Error(t, err)
	assert.True(t, IsWriteError(err))
}

// TestWriteTable_Golden pins the generic table format used by the harvest
// listings output.
func TestWriteTable_Golden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listados.csv")
	rows := [][]string{
		{"Acto público 2024", "https://example.org/actos/2024"},
		{"Listado, provisorio", "https://example.org/listados/1"},
	}

	require.NoError(t, WriteTable(path, []string{"titulo", "url"}, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "listings_table", data)
}
