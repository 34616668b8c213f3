// Package events defines event types and structures for automation lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/automations/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every automation lifecycle event.
const Topic = "automations.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	AutomationSavedEvent       EventType = "automation.saved"
	AutomationActivatedEvent   EventType = "automation.activated"
	AutomationDeactivatedEvent EventType = "automation.deactivated"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	AutomationID string         `json:"automation_id"`
	OwnerID      string         `json:"owner_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// AutomationSaved is published after the graph or name of an automation changed.
type AutomationSaved struct {
	BaseEvent

	StepCount       int `json:"step_count"`
	ConnectionCount int `json:"connection_count"`
}

func (a AutomationSaved) GetType() EventType {
	return AutomationSavedEvent
}

// AutomationActivated carries the full automation so the execution runtime can
// start listening for its triggers without reading storage.
type AutomationActivated struct {
	BaseEvent

	Automation models.Automation `json:"automation"`
}

func (a AutomationActivated) GetType() EventType {
	return AutomationActivatedEvent
}

type AutomationDeactivated struct {
	BaseEvent
}

func (a AutomationDeactivated) GetType() EventType {
	return AutomationDeactivatedEvent
}

func NewBaseEvent(eventType EventType, automation *models.Automation) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		AutomationID: automation.ID,
		OwnerID:      automation.OwnerID,
		Metadata:     make(map[string]any),
	}
}

func NewAutomationSaved(automation *models.Automation) *AutomationSaved {
	return &AutomationSaved{
		BaseEvent:       NewBaseEvent(AutomationSavedEvent, automation),
		StepCount:       len(automation.Steps),
		ConnectionCount: len(automation.Connections),
	}
}

func NewAutomationActivated(automation *models.Automation) *AutomationActivated {
	return &AutomationActivated{
		BaseEvent:  NewBaseEvent(AutomationActivatedEvent, automation),
		Automation: *automation,
	}
}

func NewAutomationDeactivated(automation *models.Automation) *AutomationDeactivated {
	return &AutomationDeactivated{
		BaseEvent: NewBaseEvent(AutomationDeactivatedEvent, automation),
	}
}
