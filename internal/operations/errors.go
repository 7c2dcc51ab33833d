package operations

import (
	"errors"
	"fmt"
	"sort"

	"rbmfcli/internal/dataprocessing"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
	ErrorTypeNotFound     ErrorType = "not_found"
)

// OperationError is a step or collection level failure
type OperationError struct {
	Type       ErrorType              `json:"type"`
	Collection string                 `json:"collection,omitempty"`
	Step       string                 `json:"step,omitempty"`
	Message    string                 `json:"message"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Retryable  bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	where := e.Step
	if e.Collection != "" {
		where = e.Collection
		if e.Step != "" {
			where += "/" + e.Step
		}
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if where != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, where, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewDependencyError creates a new dependency error
func NewDependencyError(step, dependsOn, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeDependency,
		Step:    step,
		Message: message,
		Context: map[string]interface{}{
			"depends_on": dependsOn,
		},
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error, retryable bool) *OperationError {
	return &OperationError{
		Type:      ErrorTypeExecution,
		Step:      step,
		Message:   "step execution failed",
		Cause:     cause,
		Retryable: retryable,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(step string, timeout string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeTimeout,
		Step:    step,
		Message: fmt.Sprintf("step exceeded timeout of %s", timeout),
		Context: map[string]interface{}{
			"timeout": timeout,
		},
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
	}
}

// NewFatalError creates a new fatal error
func NewFatalError(message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Message: message,
		Cause:   cause,
	}
}

// CollectionError tags err with the collection it stopped. A missing
// collection keeps the not_found type.
func CollectionError(collection string, err error) *OperationError {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		tagged := *opErr
		tagged.Collection = collection
		return &tagged
	}
	var notFound *dataprocessing.CollectionNotFoundError
	if errors.As(err, &notFound) {
		return &OperationError{Type: ErrorTypeNotFound, Collection: collection, Message: "collection not found", Cause: err}
	}
	return &OperationError{Type: ErrorTypeFatal, Collection: collection, Message: "collection failed", Cause: err}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Retryable
	}
	return false
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// WrapError wraps an error with step context
func WrapError(err error, step string, message string) *OperationError {
	if err == nil {
		return nil
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		wrapped := *opErr
		if wrapped.Step == "" {
			wrapped.Step = step
		}
		if message != "" {
			wrapped.Message = fmt.Sprintf("%s: %s", message, wrapped.Message)
		}
		return &wrapped
	}

	if message == "" {
		message = "step execution failed"
	}
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: message,
		Cause:   err,
	}
}

// ErrorList gathers the errors of a multi-collection run
type ErrorList struct {
	Errors []*OperationError `json:"errors"`
}

// Error implements the error interface
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the individual errors to errors.Is and errors.As
func (e *ErrorList) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// Add adds an error to the list
func (e *ErrorList) Add(err *OperationError) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ForCollection returns the errors recorded against one collection
func (e *ErrorList) ForCollection(collection string) []*OperationError {
	var out []*OperationError
	for _, err := range e.Errors {
		if err.Collection == collection {
			out = append(out, err)
		}
	}
	return out
}

// Sort orders the errors by collection
func (e *ErrorList) Sort() {
	sort.SliceStable(e.Errors, func(i, j int) bool {
		return e.Errors[i].Collection < e.Errors[j].Collection
	})
}
