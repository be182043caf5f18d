package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// sourceTextColumns lists the header names accepted for the source text
// column, in preference order. "observaciones" is the upstream feed's name.
var sourceTextColumns = []string{"text", "observaciones"}

// State file header. Order is fixed for written snapshots; loading only
// requires presence.
const (
	colID        = "id"
	colOriginal  = "original_text"
	colCorrected = "corrected_text"
)

// LoadSource reads the source dataset. The file is mandatory; a missing or
// malformed file is a *SchemaError. Duplicate ids keep the last occurrence
// and the result is sorted by id.
func LoadSource(path string) ([]SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewSchemaError(path, "source file not found (mandatory input)", err)
		}
		return nil, NewSchemaError(path, "cannot open source file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, NewSchemaError(path, "missing header row", err)
	}

	idIdx := columnIndex(header, colID)
	textIdx := -1
	for _, name := range sourceTextColumns {
		if textIdx = columnIndex(header, name); textIdx >= 0 {
			break
		}
	}
	if idIdx < 0 || textIdx < 0 {
		return nil, NewSchemaError(path,
			fmt.Sprintf("required columns %q and one of %v, got %v", colID, sourceTextColumns, header), nil)
	}

	byID := make(map[int64]string)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewSchemaError(path, "malformed CSV row", err)
		}

		id, err := parseID(row[idIdx])
		if err != nil {
			line, _ := r.FieldPos(idIdx)
			return nil, &SchemaError{Path: path, Line: line,
				Message: fmt.Sprintf("id %q is not an integer", row[idIdx]), Err: err}
		}
		// Last occurrence wins on duplicate ids.
		byID[id] = row[textIdx]
	}

	records := make([]SourceRecord, 0, len(byID))
	for id, text := range byID {
		records = append(records, SourceRecord{ID: id, Text: text})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// LoadState reads the persisted state table. A missing file is not an
// error: it means first run and returns an empty table. Duplicate ids keep
// the last occurrence and the result is sorted by id.
func LoadState(path string) ([]PersistedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []PersistedRecord{}, nil
		}
		return nil, NewSchemaError(path, "cannot open state file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, NewSchemaError(path, "missing header row", err)
	}

	idIdx := columnIndex(header, colID)
	origIdx := columnIndex(header, colOriginal)
	corrIdx := columnIndex(header, colCorrected)
	if idIdx < 0 || origIdx < 0 || corrIdx < 0 {
		return nil, NewSchemaError(path,
			fmt.Sprintf("required columns %q, %q, %q, got %v", colID, colOriginal, colCorrected, header), nil)
	}

	byID := make(map[int64]PersistedRecord)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewSchemaError(path, "malformed CSV row", err)
		}

		id, err := parseID(row[idIdx])
		if err != nil {
			line, _ := r.FieldPos(idIdx)
			return nil, &SchemaError{Path: path, Line: line,
				Message: fmt.Sprintf("id %q is not an integer", row[idIdx]), Err: err}
		}
		byID[id] = PersistedRecord{ID: id, Original: row[origIdx], Corrected: row[corrIdx]}
	}

	records := make([]PersistedRecord, 0, len(byID))
	for _, rec := range byID {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// columnIndex returns the index of the named column, or -1.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// parseID coerces an id field to int64.
func parseID(field string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(field), 10, 64)
}
