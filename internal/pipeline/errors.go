package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes pipeline failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingKeyColumn
	KindExtractionFailure
	KindExportFailure
)

// String returns the error code for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMissingKeyColumn:
		return "MISSING_KEY_COLUMN"
	case KindExtractionFailure:
		return "EXTRACTION_FAILURE"
	case KindExportFailure:
		return "EXPORT_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Error is a pipeline failure with the context needed to report it.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// Column is the missing column for KindMissingKeyColumn.
	Column string `json:"column,omitempty"`
	// Source names the document or destination involved.
	Source string `json:"source,omitempty"`
	Err    error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Source != "" {
		msg += ": " + e.Source
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can test against
// the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Column == "" && t.Source == ""
}

// Sentinels for errors.Is.
var (
	ErrMissingKeyColumn  = &Error{Kind: KindMissingKeyColumn}
	ErrExtractionFailure = &Error{Kind: KindExtractionFailure}
	ErrExportFailure     = &Error{Kind: KindExportFailure}
)

// MissingKeyColumn reports that side lacks the join key column.
func MissingKeyColumn(column, side string) *Error {
	return &Error{
		Kind:    KindMissingKeyColumn,
		Message: fmt.Sprintf("No '%s' column found in %s.", column, side),
		Column:  column,
	}
}

// ExtractionFailure wraps a fault raised while reading tables from source.
func ExtractionFailure(source string, err error) *Error {
	return &Error{
		Kind:    KindExtractionFailure,
		Message: "failed to extract tables",
		Source:  source,
		Err:     err,
	}
}

// ExportFailure wraps a fault raised while writing dest.
func ExportFailure(dest string, err error) *Error {
	return &Error{
		Kind:    KindExportFailure,
		Message: "unable to save",
		Source:  dest,
		Err:     err,
	}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
