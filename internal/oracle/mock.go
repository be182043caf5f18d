package oracle

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mock is an offline backend that applies a deterministic cleanup instead of
// calling a model: whitespace runs collapse to one space, the first letter is
// uppercased and a missing terminal punctuation mark becomes a period. It
// needs no credential and always succeeds.
type Mock struct{}

// NewMock builds the offline backend.
func NewMock() *Mock {
	return &Mock{}
}

// CorrectBatch corrects every item deterministically.
func (m *Mock) CorrectBatch(_ context.Context, items []Item) ([]Correction, error) {
	corrections := make([]Correction, 0, len(items))
	for _, item := range items {
		corrections = append(corrections, Correction{
			ID:        item.ID,
			Corrected: tidy(item.Text),
		})
	}
	return corrections, nil
}

func tidy(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	if r != utf8.RuneError {
		s = string(unicode.ToUpper(r)) + s[size:]
	}
	if !strings.ContainsRune(".!?…", lastRune(s)) {
		s += "."
	}
	return s
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
