package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField marks a record that lacks a required column.
	ErrMissingField = errors.New("missing field")
	// ErrZeroDenominator is returned when no record passed the status filter.
	ErrZeroDenominator = errors.New("no matching records")
	// ErrNoHeader is returned for an input without a header row.
	ErrNoHeader = errors.New("input has no header row")
)

// MissingFieldError reports the data row (1-based, 0 for the header) lacking Field.
type MissingFieldError struct {
	Row   int
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("header: missing field %q", e.Field)
	}
	return fmt.Sprintf("row %d: missing field %q", e.Row, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// IOError wraps a failure to read the input or write an output.
type IOError struct {
	Op   string // open, read, create, write, commit
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
