package pdfformfiller

import (
	"errors"
	"fmt"
)

// Sentinel errors for form filling failures.
var (
	ErrPageNotFound    = errors.New("pdfformfiller: page not found")
	ErrInvalidGeometry = errors.New("pdfformfiller: invalid field geometry")
	ErrInvalidStyle    = errors.New("pdfformfiller: invalid style")
	ErrFieldNotFound   = errors.New("pdfformfiller: field not found")
	ErrEmptySource     = errors.New("pdfformfiller: source document is empty")
)

// FillError represents an error that occurred during a specific Filler
// operation. It wraps an underlying error and records the operation name
// and, when relevant, the 0-based page index.
type FillError struct {
	Op   string // operation name, e.g. "AddText", "Write"
	Page int    // page index, or -1 when the error is not tied to a page
	Err  error  // underlying error
}

func (e *FillError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Page >= 0 {
		return fmt.Sprintf("pdfformfiller.%s: page %d: %s", e.Op, e.Page, msg)
	}
	return fmt.Sprintf("pdfformfiller.%s: %s", e.Op, msg)
}

func (e *FillError) Unwrap() error {
	return e.Err
}

// newFillError creates a FillError for an operation on a page. Use
// page -1 for document-wide failures.
func newFillError(op string, page int, err error) *FillError {
	return &FillError{Op: op, Page: page, Err: err}
}
