// Package web provides HTTP request and response types for the automation API.
package web

import (
	"encoding/json"
	"fmt"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/models"
)

// NodeRequest is a step in the canvas wire shape: kind travels as "type" and the
// configuration as "data".
type NodeRequest struct {
	ID       string          `json:"id"       validate:"required"`
	Type     models.StepKind `json:"type"     validate:"required"`
	Position models.Position `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// EdgeRequest is a connection in the canvas wire shape.
type EdgeRequest struct {
	ID           string `json:"id"                     validate:"required"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// CreateAutomationRequest represents the request body for creating a new automation.
// A template id populates the graph from a bundled template; nodes and edges are
// then ignored.
type CreateAutomationRequest struct {
	OwnerID    string        `json:"ownerId"              validate:"required"`
	Name       string        `json:"name"                 validate:"required,max=255"`
	TemplateID string        `json:"templateId,omitempty"`
	Nodes      []NodeRequest `json:"nodes"                validate:"dive"`
	Edges      []EdgeRequest `json:"edges"                validate:"dive"`
}

// SaveAutomationRequest replaces the whole graph of an automation.
type SaveAutomationRequest struct {
	Name  *string       `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Nodes []NodeRequest `json:"nodes"          validate:"dive"`
	Edges []EdgeRequest `json:"edges"          validate:"dive"`
}

// AddStepRequest represents the request body for dropping a step on the canvas.
type AddStepRequest struct {
	Type     models.StepKind `json:"type"           validate:"required"`
	Position models.Position `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// UpdateStepRequest moves a step and/or replaces its configuration. At least one
// field must be present.
type UpdateStepRequest struct {
	Position *models.Position `json:"position,omitempty"`
	Data     json.RawMessage  `json:"data,omitempty"`
}

// ConnectRequest represents a proposed connection.
type ConnectRequest struct {
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// ApplyTemplateRequest selects a bundled template.
type ApplyTemplateRequest struct {
	TemplateID string `json:"templateId" validate:"required"`
}

// StepResponse returns the stored automation with the step an edit produced.
type StepResponse struct {
	Automation *models.Automation `json:"automation"`
	Node       models.Step        `json:"node"`
}

// ConnectionResponse returns the stored automation with the accepted connection.
type ConnectionResponse struct {
	Automation *models.Automation `json:"automation"`
	Edge       models.Connection  `json:"edge"`
}

// CheckConnectionResponse is the result of a dry-run connection check.
type CheckConnectionResponse struct {
	Valid  bool   `json:"valid"`
	Rule   string `json:"rule,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// VariablesResponse lists the template variables available at a step.
type VariablesResponse struct {
	Variables []string `json:"variables"`
}

// decodeData validates raw step data against the kind's schema and decodes it.
func decodeData(kind models.StepKind, data json.RawMessage) (models.StepConfig, error) {
	if err := catalog.ValidateData(kind, data); err != nil {
		return nil, err
	}

	config, err := models.DecodeStepConfig(kind, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrInvalidStepData, err)
	}

	return config, nil
}

// ToStep converts a wire node into a step.
func (n NodeRequest) ToStep() (models.Step, error) {
	config, err := decodeData(n.Type, n.Data)
	if err != nil {
		return models.Step{}, fmt.Errorf("node %s: %w", n.ID, err)
	}

	return models.Step{
		ID:       n.ID,
		Kind:     n.Type,
		Position: n.Position,
		Config:   config,
	}, nil
}

// ToConnection converts a wire edge into a connection.
func (e EdgeRequest) ToConnection() models.Connection {
	return models.Connection{
		ID:           e.ID,
		SourceStepID: e.Source,
		TargetStepID: e.Target,
		SourcePort:   e.SourceHandle,
	}
}

func toGraph(nodes []NodeRequest, edges []EdgeRequest) ([]models.Step, []models.Connection, error) {
	steps := make([]models.Step, 0, len(nodes))

	for _, node := range nodes {
		step, err := node.ToStep()
		if err != nil {
			return nil, nil, err
		}

		steps = append(steps, step)
	}

	connections := make([]models.Connection, 0, len(edges))
	for _, edge := range edges {
		connections = append(connections, edge.ToConnection())
	}

	return steps, connections, nil
}
