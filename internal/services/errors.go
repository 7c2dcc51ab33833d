package services

import (
	"errors"
	"fmt"
	"strings"

	apperrors "rbmfcli/internal/errors"
	"rbmfcli/internal/files"
)

// Service errors
var (
	ErrNoCollections       = errors.New("no collections found in data directory")
	ErrOperationRunning    = errors.New("a transformation is already running")
	ErrCollectionLogAbsent = errors.New("no validation log for collection")
	ErrInvalidInput        = errors.New("invalid input")
)

// InvalidCollectionsError is returned when none of the requested
// collections exist. Each name carries its suggestions.
type InvalidCollectionsError struct {
	Invalid []files.InvalidCollection
}

func (e *InvalidCollectionsError) Error() string {
	parts := make([]string, len(e.Invalid))
	for i, inv := range e.Invalid {
		parts[i] = inv.Name
		if len(inv.Suggestions) > 0 {
			parts[i] += fmt.Sprintf(" (did you mean %s?)", strings.Join(inv.Suggestions, ", "))
		}
	}
	return "no valid collections: " + strings.Join(parts, "; ")
}

// ErrorType implements apperrors.Classified
func (e *InvalidCollectionsError) ErrorType() apperrors.ErrorType { return apperrors.ErrTypeValidation }
