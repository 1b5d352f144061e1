package checkpoint

import (
	"errors"
	"fmt"

	"github.com/casewise/checkpoint/internal/record"
)

// StateError represents a failure detected by the checkpoint manager.
//
// Manager failures include:
//   - Not found: unknown checkpoint ID
//   - Invalid state: operating on a checkpoint in an unexpected status
//     (committing a historical checkpoint, rolling back twice, restoring to
//     an active checkpoint)
//   - Undo failure: an inverse statement itself failed, aborting the
//     enclosing transaction
//   - Invalid argument: a logging call that violates the entry contract
//
// Connection failures (pool exhaustion, I/O timeouts) are not wrapped in
// StateError; they propagate as the underlying driver error.
type StateError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// CheckpointID identifies the affected checkpoint, when known.
	CheckpointID string

	// Status is the checkpoint's actual status (for invalid-state errors).
	Status record.Status

	// Err is the underlying cause (for undo failures).
	Err error
}

// ErrorCode categorizes manager errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an unknown checkpoint ID.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidState indicates the checkpoint's status does not permit
	// the requested operation.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeUndoFailed indicates a reversal statement failed; the whole
	// transaction was aborted and the checkpoint is unchanged.
	ErrCodeUndoFailed ErrorCode = "UNDO_FAILED"

	// ErrCodeInvalidArgument indicates a call that violates the logging or
	// begin contract (unknown operation kind, missing pre-image, ...).
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.CheckpointID != "" {
		return fmt.Sprintf("%s: %s (checkpoint=%s)", e.Code, e.Message, e.CheckpointID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *StateError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeNotFound
	}
	return false
}

// IsInvalidState returns true if the error is an invalid-state error.
// Uses errors.As to handle wrapped errors.
func IsInvalidState(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidState
	}
	return false
}

// IsUndoFailure returns true if the error is an undo application failure.
// Uses errors.As to handle wrapped errors.
func IsUndoFailure(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUndoFailed
	}
	return false
}

// newNotFound creates a StateError for an unknown checkpoint.
func newNotFound(checkpointID string) *StateError {
	return &StateError{
		Code:         ErrCodeNotFound,
		Message:      "checkpoint not found",
		CheckpointID: checkpointID,
	}
}

// newInvalidState creates a StateError for an operation against the wrong
// status.
func newInvalidState(checkpointID string, status record.Status, want string) *StateError {
	return &StateError{
		Code:         ErrCodeInvalidState,
		Message:      fmt.Sprintf("checkpoint is %s, want %s", status, want),
		CheckpointID: checkpointID,
		Status:       status,
	}
}

// newUndoFailure wraps an applier error.
func newUndoFailure(checkpointID string, err error) *StateError {
	return &StateError{
		Code:         ErrCodeUndoFailed,
		Message:      "undo application failed",
		CheckpointID: checkpointID,
		Err:          err,
	}
}

// newInvalidArgument creates a StateError for a contract violation.
func newInvalidArgument(msg string) *StateError {
	return &StateError{
		Code:    ErrCodeInvalidArgument,
		Message: msg,
	}
}
