package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Item is a single text sent to the backend for correction.
type Item struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Correction is a single corrected text returned by the backend.
type Correction struct {
	ID        int64  `json:"id"`
	Corrected string `json:"corrected_text"`
}

// Corrector corrects one batch of items. Implementations return the
// corrections they managed to produce; the result may cover fewer items than
// were sent, carry unknown ids, or repeat ids. Callers validate it.
type Corrector interface {
	CorrectBatch(ctx context.Context, items []Item) ([]Correction, error)
}

// TransientError reports a backend failure that invalidates one batch attempt
// but not the run.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a backend failure scoped to one attempt.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
