package services

import (
	"context"
	"fmt"

	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/otelhelper"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/dukex/automations/pkg/templates"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Editor applies canvas edits to stored automations. Each edit loads the
// automation, runs one graph operation on it and stores the result.
type Editor struct {
	automations *Automations
	templates   *templates.Library
}

// NewEditor creates an editor on top of an automations service.
func NewEditor(automations *Automations, library *templates.Library) *Editor {
	return &Editor{
		automations: automations,
		templates:   library,
	}
}

// AddStepRequest describes a step dropped on the canvas. A nil Config gets the
// kind's default configuration.
type AddStepRequest struct {
	Kind     models.StepKind
	Position models.Position
	Config   models.StepConfig
}

// AddStep adds a new step with a fresh id and returns it as stored.
func (e *Editor) AddStep(ctx context.Context, automationID string, req AddStepRequest) (*models.Automation, models.Step, error) {
	step := models.Step{
		ID:       uuid.NewString(),
		Kind:     req.Kind,
		Position: req.Position,
		Config:   req.Config,
	}

	automation, err := e.edit(ctx, "editor.add_step", automationID, func(g graph.Graph, _ *graph.Validator) (graph.Graph, error) {
		return g.AddStep(step)
	})
	if err != nil {
		return nil, models.Step{}, err
	}

	stored, _ := graph.FromAutomation(automation).Step(step.ID)

	return automation, stored, nil
}

// RemoveStep removes a step and every connection touching it.
func (e *Editor) RemoveStep(ctx context.Context, automationID, stepID string) (*models.Automation, error) {
	return e.edit(ctx, "editor.remove_step", automationID, func(g graph.Graph, _ *graph.Validator) (graph.Graph, error) {
		return g.RemoveStep(stepID)
	})
}

// MoveStep changes the canvas position of a step.
func (e *Editor) MoveStep(ctx context.Context, automationID, stepID string, position models.Position) (*models.Automation, error) {
	return e.UpdateStep(ctx, automationID, stepID, &position, nil)
}

// UpdateStepConfig replaces the configuration of a step. The existing connections
// must still be valid with the new configuration.
func (e *Editor) UpdateStepConfig(ctx context.Context, automationID, stepID string, config models.StepConfig) (*models.Automation, error) {
	return e.UpdateStep(ctx, automationID, stepID, nil, config)
}

// UpdateStep moves a step and replaces its configuration in one edit. A nil position
// or config leaves that part unchanged. Nothing is stored unless both changes are
// accepted.
func (e *Editor) UpdateStep(
	ctx context.Context,
	automationID, stepID string,
	position *models.Position,
	config models.StepConfig,
) (*models.Automation, error) {
	return e.edit(ctx, "editor.update_step", automationID, func(g graph.Graph, _ *graph.Validator) (graph.Graph, error) {
		next := g

		if position != nil {
			moved, err := next.MoveStep(stepID, *position)
			if err != nil {
				return g, err
			}

			next = moved
		}

		if config == nil {
			return next, nil
		}

		next, err := next.UpdateStepConfig(stepID, config)
		if err != nil {
			return g, err
		}

		validator, err := e.automations.validatorFor(ctx, next)
		if err != nil {
			return g, err
		}

		if err := graph.ValidateGraph(validator, next); err != nil {
			return g, err
		}

		return next, nil
	})
}

// ConnectRequest describes a proposed connection between two steps.
type ConnectRequest struct {
	SourceStepID string
	TargetStepID string
	SourcePort   string
}

func (r ConnectRequest) connection(id string) models.Connection {
	return models.Connection{
		ID:           id,
		SourceStepID: r.SourceStepID,
		TargetStepID: r.TargetStepID,
		SourcePort:   r.SourcePort,
	}
}

// Connect adds a connection once the validator accepts it. Rejections are
// returned as *graph.RejectionError.
func (e *Editor) Connect(ctx context.Context, automationID string, req ConnectRequest) (*models.Automation, models.Connection, error) {
	conn := req.connection(uuid.NewString())

	automation, err := e.edit(ctx, "editor.connect", automationID, func(g graph.Graph, validator *graph.Validator) (graph.Graph, error) {
		return g.AddConnection(validator, conn)
	})
	if err != nil {
		return nil, models.Connection{}, err
	}

	return automation, conn, nil
}

// CheckConnection runs the validator on a proposed connection without storing it.
// It is used by the canvas to give feedback while the user drags an edge.
func (e *Editor) CheckConnection(ctx context.Context, automationID string, req ConnectRequest) (err error) {
	ctx, span := otelhelper.StartSpan(ctx, e.automations.tracer, "editor.check_connection",
		attribute.String(otelhelper.AutomationIDKey, automationID))
	defer func() { finishSpan(span, err) }()

	automation, err := e.automations.Get(ctx, automationID)
	if err != nil {
		return err
	}

	g := graph.FromAutomation(automation)

	validator, err := e.automations.validatorFor(ctx, g)
	if err != nil {
		return err
	}

	return validator.Validate(g, req.connection(uuid.NewString()))
}

// Disconnect removes a connection by id.
func (e *Editor) Disconnect(ctx context.Context, automationID, connectionID string) (*models.Automation, error) {
	return e.edit(ctx, "editor.disconnect", automationID, func(g graph.Graph, _ *graph.Validator) (graph.Graph, error) {
		return g.RemoveConnection(connectionID)
	})
}

// ApplyTemplate replaces the steps and connections of an automation with those of
// a bundled template. The name is kept.
func (e *Editor) ApplyTemplate(ctx context.Context, automationID, templateID string) (automation *models.Automation, err error) {
	ctx, span := otelhelper.StartSpan(ctx, e.automations.tracer, "editor.apply_template",
		attribute.String(otelhelper.AutomationIDKey, automationID),
		attribute.String(otelhelper.TemplateIDKey, templateID))
	defer func() { finishSpan(span, err) }()

	existing, err := e.automations.editable(ctx, automationID)
	if err != nil {
		return nil, err
	}

	applied, err := e.templates.Apply(templateID, *existing)
	if err != nil {
		return nil, err
	}

	return e.automations.update(ctx, existing.ID, persistence.AutomationUpdate{
		Steps:       applied.Steps,
		Connections: applied.Connections,
	})
}

// CreateFromTemplate creates a new automation populated from a bundled template.
func (e *Editor) CreateFromTemplate(ctx context.Context, ownerID, name, templateID string) (*models.Automation, error) {
	applied, err := e.templates.Apply(templateID, models.Automation{OwnerID: ownerID, Name: name})
	if err != nil {
		return nil, err
	}

	return e.automations.Create(ctx, CreateRequest{
		OwnerID:     ownerID,
		Name:        name,
		Steps:       applied.Steps,
		Connections: applied.Connections,
	})
}

// Variables lists the template variables available to a step's configuration.
func (e *Editor) Variables(ctx context.Context, automationID, stepID string) ([]string, error) {
	automation, err := e.automations.Get(ctx, automationID)
	if err != nil {
		return nil, err
	}

	variables, err := graph.AvailableVariables(graph.FromAutomation(automation), stepID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, stepID)
	}

	return variables, nil
}

func (e *Editor) edit(
	ctx context.Context,
	op string,
	automationID string,
	change func(g graph.Graph, validator *graph.Validator) (graph.Graph, error),
) (automation *models.Automation, err error) {
	ctx, span := otelhelper.StartSpan(ctx, e.automations.tracer, op,
		attribute.String(otelhelper.AutomationIDKey, automationID))
	defer func() { finishSpan(span, err) }()

	existing, err := e.automations.editable(ctx, automationID)
	if err != nil {
		return nil, err
	}

	g := graph.FromAutomation(existing)

	validator, err := e.automations.validatorFor(ctx, g)
	if err != nil {
		return nil, err
	}

	next, err := change(g, validator)
	if err != nil {
		return nil, err
	}

	return e.automations.update(ctx, existing.ID, persistence.AutomationUpdate{
		Steps:       nonNil(next.Steps),
		Connections: nonNil(next.Connections),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
