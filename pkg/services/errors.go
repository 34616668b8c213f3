// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/dukex/automations/pkg/templates"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrEmptyOwnerID   = errors.New("owner ID cannot be empty")

	// Activation Validation Errors (400 Bad Request).
	ErrAutomationNameRequired = errors.New("automation name is required")
	ErrStepsRequired          = errors.New("automation must have at least one step")
	ErrTriggerStepRequired    = errors.New("automation must have at least one trigger step")

	// Business Logic Conflicts (409 Conflict).
	ErrCannotModifyActive = errors.New("cannot modify an active automation, deactivate it first")

	// ErrAutomationNotFound is returned when an automation is not found.
	ErrAutomationNotFound = persistence.ErrAutomationNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
// Connection rejections are reported separately through graph.IsRejection.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrAutomationNameRequired) ||
		errors.Is(err, ErrStepsRequired) ||
		errors.Is(err, ErrTriggerStepRequired) ||
		errors.Is(err, models.ErrUnknownStepKind) ||
		errors.Is(err, catalog.ErrInvalidStepData) ||
		errors.Is(err, catalog.ErrInvalidCronExpression) ||
		errors.Is(err, graph.ErrDuplicateStep) ||
		errors.Is(err, graph.ErrConfigKindMismatch)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrAutomationNotFound) ||
		errors.Is(err, graph.ErrStepNotFound) ||
		errors.Is(err, graph.ErrConnectionNotFound) ||
		errors.Is(err, templates.ErrTemplateNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCannotModifyActive) ||
		errors.Is(err, persistence.ErrAutomationAlreadyExists)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
