package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteState replaces the persisted state snapshot at path with the given
// records. The caller is responsible for ordering (engine output is sorted
// by id); rows are written as given. Failures surface as *WriteError and
// leave any previous snapshot intact.
func WriteState(path string, records []PersistedRecord) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{strconv.FormatInt(rec.ID, 10), rec.Original, rec.Corrected}
	}
	return WriteTable(path, []string{colID, colOriginal, colCorrected}, rows)
}

// WriteTable atomically writes a CSV table with the given header and rows.
func WriteTable(path string, header []string, rows [][]string) error {
	return WriteAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteAtomic writes a file via temp-file-and-rename so readers never
// observe a partial write: fill writes the content, then the temp file is
// fsynced and renamed over path. The parent directory is created if needed.
func WriteAtomic(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewWriteError(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return NewWriteError(path, err)
	}
	tmpName := tmp.Name()
	// No-op after a successful rename; cleans up on every failure path.
	defer os.Remove(tmpName)

	if err := fill(tmp); err != nil {
		tmp.Close()
		return NewWriteError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return NewWriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return NewWriteError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return NewWriteError(path, err)
	}
	return nil
}
