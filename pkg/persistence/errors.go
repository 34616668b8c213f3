// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrAutomationNotFound indicates an automation was not found by the given identifier.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrAutomationAlreadyExists indicates an automation with the same identifier already exists.
	ErrAutomationAlreadyExists = errors.New("automation already exists")
)

// AutomationError wraps automation-related errors with additional context.
type AutomationError struct {
	Op           string // Operation being performed (e.g., "GetByID", "Update", "Delete")
	AutomationID string // Automation ID if applicable
	OwnerID      string // Owner ID for owner-scoped operations
	Err          error  // Underlying error
	Message      string // Additional context message
}

func (e *AutomationError) Error() string {
	target := e.AutomationID
	if e.OwnerID != "" {
		target = fmt.Sprintf("owner %s", e.OwnerID)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for automation %s: %s (%v)", e.Op, target, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for automation %s: %v", e.Op, target, e.Err)
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for automation errors.
func (e *AutomationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAutomationError creates a new automation error with context.
func NewAutomationError(op, automationID string, err error) *AutomationError {
	return &AutomationError{
		Op:           op,
		AutomationID: automationID,
		Err:          err,
	}
}

// NewOwnerError creates a new automation error for owner-scoped operations.
func NewOwnerError(op, ownerID string, err error) *AutomationError {
	return &AutomationError{
		Op:      op,
		OwnerID: ownerID,
		Err:     err,
	}
}

// IsAutomationNotFound checks if an error indicates an automation was not found.
func IsAutomationNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound)
}
