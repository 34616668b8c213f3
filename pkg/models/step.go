// Package models defines the core domain models for marketing automation graphs.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StepKind identifies the type of a step. It never changes after the step is created.
type StepKind string

const (
	StepKindTrigger        StepKind = "trigger"         // Event that starts the automation
	StepKindAction         StepKind = "action"          // Email send
	StepKindCondition      StepKind = "condition"       // Branches on the "true" and "false" ports
	StepKindDelay          StepKind = "delay"           // Waits before continuing
	StepKindStripeDiscount StepKind = "stripe_discount" // Creates a Stripe promotion code
	StepKindWebhook        StepKind = "webhook"         // Calls an external integration
)

// StepKinds lists every known step kind in catalog order.
var StepKinds = []StepKind{
	StepKindTrigger,
	StepKindAction,
	StepKindCondition,
	StepKindDelay,
	StepKindStripeDiscount,
	StepKindWebhook,
}

// ErrUnknownStepKind is returned when a step kind is not one of StepKinds.
var ErrUnknownStepKind = errors.New("unknown step kind")

// Valid reports whether k is a known step kind.
func (k StepKind) Valid() bool {
	for _, known := range StepKinds {
		if k == known {
			return true
		}
	}

	return false
}

// Position is the location of a step on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Step is a node of the automation graph.
type Step struct {
	ID       string   `validate:"required"`
	Kind     StepKind `validate:"required,oneof=trigger action condition delay stripe_discount webhook"`
	Position Position
	Config   StepConfig
}

// stepJSON is the boundary shape of a step: kind travels as "type" and config as "data".
type stepJSON struct {
	ID       string          `json:"id"`
	Type     StepKind        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (s Step) MarshalJSON() ([]byte, error) {
	out := stepJSON{
		ID:       s.ID,
		Type:     s.Kind,
		Position: s.Position,
	}

	if s.Config != nil {
		data, err := json.Marshal(s.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config of step %s: %w", s.ID, err)
		}

		out.Data = data
	}

	return json.Marshal(out)
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var in stepJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	config, err := DecodeStepConfig(in.Type, in.Data)
	if err != nil {
		return fmt.Errorf("step %s: %w", in.ID, err)
	}

	s.ID = in.ID
	s.Kind = in.Type
	s.Position = in.Position
	s.Config = config

	return nil
}

// IsFormSubmissionTrigger reports whether the step is a trigger fired by a form submission.
func (s Step) IsFormSubmissionTrigger() bool {
	return s.IsTriggerFor(TriggerEventFormSubmit)
}

// IsTriggerFor reports whether the step is a trigger configured for the given event.
func (s Step) IsTriggerFor(event TriggerEvent) bool {
	if s.Kind != StepKindTrigger {
		return false
	}

	config, ok := s.Config.(TriggerConfig)

	return ok && config.EventType == event
}
