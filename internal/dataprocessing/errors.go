package dataprocessing

import (
	"fmt"

	apperrors "rbmfcli/internal/errors"
)

// ParseError is a row-level failure. The row is skipped and the rest of the
// file continues.
type ParseError struct {
	File   string
	Row    int
	Field  string
	Reason string
	Value  string
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("row %d", e.Row)
	if e.File != "" {
		loc = e.File + " " + loc
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: %s %q: %s", loc, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Field, e.Reason)
}

// ErrorType implements apperrors.Classified
func (e *ParseError) ErrorType() apperrors.ErrorType { return apperrors.ErrTypeParsing }

// MissingTabError is a file-level failure: the workbook has no RBMF sheet.
type MissingTabError struct {
	File  string
	Sheet string
}

func (e *MissingTabError) Error() string {
	return fmt.Sprintf("%s: sheet %q not found", e.File, e.Sheet)
}

// ErrorType implements apperrors.Classified
func (e *MissingTabError) ErrorType() apperrors.ErrorType { return apperrors.ErrTypeMissingTab }

// CollectionNotFoundError is fatal for one collection run.
type CollectionNotFoundError struct {
	Collection string
	Path       string
	Cause      error
}

func (e *CollectionNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("collection %q not found at %s: %v", e.Collection, e.Path, e.Cause)
	}
	return fmt.Sprintf("collection %q not found at %s", e.Collection, e.Path)
}

func (e *CollectionNotFoundError) Unwrap() error { return e.Cause }

// ErrorType implements apperrors.Classified
func (e *CollectionNotFoundError) ErrorType() apperrors.ErrorType { return apperrors.ErrTypeNotFound }
