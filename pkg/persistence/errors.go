package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates no flow location produced a parseable document.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrLeadNotFound indicates the job's lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrJobNotFound indicates a queue job was not found by the given identifier.
	ErrJobNotFound = errors.New("job not found")

	// ErrTableNotFound indicates the backing table or directory of a store is missing.
	ErrTableNotFound = errors.New("table not found")

	// ErrStoreUnavailable indicates the store itself could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError wraps store errors with the operation and target that failed.
type StoreError struct {
	Op  string // Operation being performed (e.g., "DueJobs", "LeadByID")
	ID  string // Target identifier if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Err: err}
}

// Unavailable wraps err so that it matches ErrStoreUnavailable while keeping
// the original cause in the message.
func Unavailable(op, id string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsLeadNotFound checks if an error indicates a lead was not found.
func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}

// IsJobNotFound checks if an error indicates a job was not found.
func IsJobNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}

// IsTableNotFound checks if an error indicates a missing table.
func IsTableNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound)
}

// IsStoreUnavailable checks if an error indicates an unreachable store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
