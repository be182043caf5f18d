package dataset

import (
	"errors"
	"fmt"
)

// SchemaError reports an input file the engine cannot use: the file is
// missing, has no header, lacks a required column, or holds a value that
// cannot be coerced to the column type. Schema errors are fatal for a run;
// no partial state is ever written for them.
type SchemaError struct {
	// Path is the offending file.
	Path string

	// Message describes what is wrong.
	Message string

	// Line is the 1-based line of the offending value, 0 for file-level
	// problems (missing file, missing columns).
	Line int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError creates a file-level SchemaError.
func NewSchemaError(path, message string, err error) *SchemaError {
	return &SchemaError{Path: path, Message: message, Err: err}
}

// IsSchemaError returns true if the error is a SchemaError.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// WriteError reports a failed durable write of a dataset table. Write
// errors are fatal: the run must not be reported done on a failed write.
type WriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewWriteError wraps a write failure for the given path.
func NewWriteError(path string, err error) *WriteError {
	return &WriteError{Path: path, Err: err}
}

// IsWriteError returns true if the error is a WriteError.
// Uses errors.As to handle wrapped errors.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}
