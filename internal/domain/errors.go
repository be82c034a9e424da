package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during curve aggregation.
var (
	// ErrNoGroups indicates that an aggregation received no groups.
	ErrNoGroups = errors.New("no groups to aggregate")

	// ErrShapeMismatch indicates that parallel arrays disagree in length.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDegenerateDataset indicates that the pooled dataset has no
	// positives or no negatives, so a rate cannot be computed.
	ErrDegenerateDataset = errors.New("degenerate dataset")

	// ErrInvalidCounts indicates that class counts are negative or that
	// the negative count exceeds the total count.
	ErrInvalidCounts = errors.New("invalid class counts")

	// ErrInvalidRate indicates a rate outside [0, 1] or a rate array that
	// increases with the threshold.
	ErrInvalidRate = errors.New("invalid rate")

	// ErrInvalidOrder indicates an Order other than Ascending or Descending.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrNonFinite indicates a NaN or infinite value where a finite one is required.
	ErrNonFinite = errors.New("non-finite value")

	// ErrInvalidState indicates that a State operation received invalid input.
	ErrInvalidState = errors.New("invalid state")

	// ErrKeyNotFound indicates that a requested State key does not exist.
	ErrKeyNotFound = errors.New("key not found")
)

// GroupError ties a failure to the group that caused it.
type GroupError struct {
	// Index is the position of the group in the input slice.
	Index int

	// Name is the group's optional name.
	Name string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for GroupError.
func (e *GroupError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("group %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("group %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *GroupError) Unwrap() error { return e.Err }

// NewGroupError creates a new GroupError for the group at index.
func NewGroupError(index int, name string, err error) *GroupError {
	return &GroupError{
		Index: index,
		Name:  name,
		Err:   err,
	}
}

// StateError represents an error that occurred during State operations.
// It provides context about which key and operation caused the error.
type StateError struct {
	// Key is the name of the State key involved in the failed operation.
	Key string

	// Operation describes what operation was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key, operation string, err error) *StateError {
	return &StateError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures for a single entity.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string

	// Cause classifies the failure; it is matched by errors.Is.
	Cause error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap returns the classifying cause, if any.
func (e *ValidationError) Unwrap() error { return e.Cause }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// AddCause adds a message and records cause as the classifying error
// when none has been set yet.
func (e *ValidationError) AddCause(cause error, msg string) {
	if e.Cause == nil {
		e.Cause = cause
	}
	e.AddError(msg)
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
