// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/automations/pkg/models"
	"github.com/google/uuid"
)

// CreateTestStep creates a test email step with default values that can be overridden.
func CreateTestStep(overrides ...func(*models.Step)) models.Step {
	step := models.Step{
		ID:       uuid.New().String(),
		Kind:     models.StepKindAction,
		Position: models.Position{X: 100, Y: 200},
		Config: models.EmailConfig{
			Subject: "Test subject",
			Content: "Test content",
		},
	}

	for _, override := range overrides {
		override(&step)
	}

	return step
}

// WithID sets the step id.
func WithID(id string) func(*models.Step) {
	return func(s *models.Step) {
		s.ID = id
	}
}

// WithTrigger configures the step as a trigger for the given event.
func WithTrigger(event models.TriggerEvent) func(*models.Step) {
	return func(s *models.Step) {
		s.Kind = models.StepKindTrigger
		s.Config = models.TriggerConfig{EventType: event}
	}
}

// WithFormTrigger configures the step as a form submission trigger for formID.
// An empty formID leaves the form unselected.
func WithFormTrigger(formID string) func(*models.Step) {
	return func(s *models.Step) {
		s.Kind = models.StepKindTrigger
		s.Config = models.TriggerConfig{EventType: models.TriggerEventFormSubmit, ElementID: formID}
	}
}

// WithKind sets the step kind and clears its config.
func WithKind(kind models.StepKind) func(*models.Step) {
	return func(s *models.Step) {
		s.Kind = kind
		s.Config = nil
	}
}

// WithConfig sets the step configuration.
func WithConfig(config models.StepConfig) func(*models.Step) {
	return func(s *models.Step) {
		s.Config = config
	}
}

// WithPosition sets the canvas position.
func WithPosition(x, y float64) func(*models.Step) {
	return func(s *models.Step) {
		s.Position = models.Position{X: x, Y: y}
	}
}

// Connect builds a single-output connection between two steps.
func Connect(id, sourceID, targetID string) models.Connection {
	return models.Connection{ID: id, SourceStepID: sourceID, TargetStepID: targetID}
}

// ConnectPort builds a connection leaving sourceID through port.
func ConnectPort(id, sourceID, port, targetID string) models.Connection {
	return models.Connection{ID: id, SourceStepID: sourceID, TargetStepID: targetID, SourcePort: port}
}

// EmailForm returns a form with a required email field.
func EmailForm(id string) models.Form {
	return models.Form{
		ID:   id,
		Name: "Newsletter signup",
		Fields: []models.FormField{
			{Type: "text", Label: "Name", Required: false},
			{Type: "email", Label: "Email", Required: true},
		},
	}
}

// CreateTestAutomation creates an automation with the given steps and connections.
func CreateTestAutomation(ownerID string, steps []models.Step, connections []models.Connection) *models.Automation {
	return &models.Automation{
		OwnerID:     ownerID,
		Name:        "Test Automation",
		Steps:       steps,
		Connections: connections,
	}
}
