package importer

import (
	"fmt"
	"strings"
)

// ParseError aborts the whole import: the file is empty or could not be decoded.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedFileTypeError is returned for uploads that are neither CSV nor a spreadsheet.
type UnsupportedFileTypeError struct {
	Name        string
	ContentType string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type for %q: upload a .csv, .xlsx or .xls file", e.Name)
}

// MissingColumnsError names every required logical column that could not
// be matched, plus the headers actually present.
type MissingColumnsError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing required columns: %s. Found columns: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// NoValidRowsError blocks the import before any write. Strict is set when
// the import was aborted because strict validation saw at least one error.
type NoValidRowsError struct {
	Errors   []string
	Warnings []string
	Strict   bool
}

func (e *NoValidRowsError) Error() string {
	if e.Strict {
		return fmt.Sprintf("validation failed with %d error(s); nothing was imported", len(e.Errors))
	}
	return fmt.Sprintf("no valid rows to import (%d error(s))", len(e.Errors))
}

// RowError is a validation failure for one input row.
type RowError struct {
	Row     int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// ReconciliationError is a lookup or write failure while processing one valid row.
type ReconciliationError struct {
	Row   int
	Stage RowStage
	Err   error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("Row %d: %v", e.Row, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// MenteeNotRegisteredError fails a row when unknown mentees are rejected.
type MenteeNotRegisteredError struct {
	Email string
}

func (e *MenteeNotRegisteredError) Error() string {
	return fmt.Sprintf("Mentee %s is not registered", e.Email)
}
