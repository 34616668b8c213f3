// Package persistence provides data storage abstraction layer for automations.
package persistence

import (
	"context"
	"slices"
	"time"

	"github.com/dukex/automations/pkg/models"
	"github.com/google/uuid"
)

type Persistence interface {
	CreateAutomation(ctx context.Context, ownerID, name string, steps []models.Step, connections []models.Connection) (*models.Automation, error)
	UpdateAutomation(ctx context.Context, id string, update AutomationUpdate) (*models.Automation, error)
	ActivateAutomation(ctx context.Context, id string) (*models.Automation, error)
	DeactivateAutomation(ctx context.Context, id string) (*models.Automation, error)
	GetAutomationByID(ctx context.Context, id string) (*models.Automation, error)
	ListAutomationsByOwner(ctx context.Context, ownerID string) ([]*models.Automation, error)
	DeleteAutomation(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// AutomationUpdate is a partial update of an automation. Nil fields are left
// unchanged; an empty non-nil slice clears the steps or connections.
type AutomationUpdate struct {
	Name        *string
	Steps       []models.Step
	Connections []models.Connection
}

// Apply writes the update onto automation and refreshes UpdatedAt.
func (u AutomationUpdate) Apply(automation *models.Automation, now time.Time) {
	if u.Name != nil {
		automation.Name = *u.Name
	}

	if u.Steps != nil {
		automation.Steps = slices.Clone(u.Steps)
	}

	if u.Connections != nil {
		automation.Connections = slices.Clone(u.Connections)
	}

	automation.UpdatedAt = now
}

// NewAutomation builds a new inactive automation with a fresh id. Adapters call it
// from CreateAutomation so every backend assigns ids and timestamps the same way.
func NewAutomation(ownerID, name string, steps []models.Step, connections []models.Connection, now time.Time) (*models.Automation, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	if steps == nil {
		steps = []models.Step{}
	}

	if connections == nil {
		connections = []models.Connection{}
	}

	return &models.Automation{
		ID:          id.String(),
		OwnerID:     ownerID,
		Name:        name,
		Steps:       slices.Clone(steps),
		Connections: slices.Clone(connections),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetActive flips the activation flag. ActivatedAt is set when an automation
// becomes active and cleared when it is deactivated.
func SetActive(automation *models.Automation, active bool, now time.Time) {
	automation.IsActive = active
	automation.UpdatedAt = now

	if !active {
		automation.ActivatedAt = nil

		return
	}

	if automation.ActivatedAt == nil {
		activatedAt := now
		automation.ActivatedAt = &activatedAt
	}
}
