// Package graph holds the automation graph and the rules that govern it: the
// copy-on-write step/connection store, the connection validator and the
// backward reachability queries both rely on.
package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/models"
)

var (
	// ErrStepNotFound indicates a step id is not part of the graph.
	ErrStepNotFound = errors.New("step not found")

	// ErrDuplicateStep indicates a step id is already taken.
	ErrDuplicateStep = errors.New("step already exists")

	// ErrConnectionNotFound indicates a connection id is not part of the graph.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrConfigKindMismatch indicates a configuration was given to a step of another kind.
	ErrConfigKindMismatch = errors.New("configuration does not match step kind")
)

// Graph is an immutable snapshot of the steps and connections of an automation.
// Operations return a new Graph and leave the receiver untouched.
type Graph struct {
	Steps       []models.Step
	Connections []models.Connection
}

// New builds a graph from copies of the given slices.
func New(steps []models.Step, connections []models.Connection) Graph {
	return Graph{
		Steps:       slices.Clone(steps),
		Connections: slices.Clone(connections),
	}
}

// FromAutomation returns the graph of an automation.
func FromAutomation(automation *models.Automation) Graph {
	return New(automation.Steps, automation.Connections)
}

// Step returns the step with the given id.
func (g Graph) Step(id string) (models.Step, bool) {
	i := g.stepIndex(id)
	if i < 0 {
		return models.Step{}, false
	}

	return g.Steps[i], true
}

// Outgoing returns the connections leaving a step.
func (g Graph) Outgoing(stepID string) []models.Connection {
	var out []models.Connection

	for _, conn := range g.Connections {
		if conn.SourceStepID == stepID {
			out = append(out, conn)
		}
	}

	return out
}

// Incoming returns the connections entering a step.
func (g Graph) Incoming(stepID string) []models.Connection {
	var in []models.Connection

	for _, conn := range g.Connections {
		if conn.TargetStepID == stepID {
			in = append(in, conn)
		}
	}

	return in
}

// AddStep appends a normalized copy of step.
func (g Graph) AddStep(step models.Step) (Graph, error) {
	if _, err := catalog.Resolve(step.Kind); err != nil {
		return g, err
	}

	if step.Config != nil && step.Config.Kind() != step.Kind {
		return g, fmt.Errorf("%w: %s config on %s step", ErrConfigKindMismatch, step.Config.Kind(), step.Kind)
	}

	if g.stepIndex(step.ID) >= 0 {
		return g, fmt.Errorf("%w: %s", ErrDuplicateStep, step.ID)
	}

	next := g.clone()
	next.Steps = append(next.Steps, catalog.Normalize(step))

	return next, nil
}

// RemoveStep removes a step together with every connection that references it.
// Steps downstream of the removed one are not rewired.
func (g Graph) RemoveStep(stepID string) (Graph, error) {
	i := g.stepIndex(stepID)
	if i < 0 {
		return g, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	next := Graph{
		Steps:       slices.Delete(slices.Clone(g.Steps), i, i+1),
		Connections: make([]models.Connection, 0, len(g.Connections)),
	}

	for _, conn := range g.Connections {
		if conn.SourceStepID != stepID && conn.TargetStepID != stepID {
			next.Connections = append(next.Connections, conn)
		}
	}

	return next, nil
}

// MoveStep changes the canvas position of a step.
func (g Graph) MoveStep(stepID string, position models.Position) (Graph, error) {
	i := g.stepIndex(stepID)
	if i < 0 {
		return g, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	next := g.clone()
	next.Steps[i].Position = position

	return next, nil
}

// UpdateStepConfig replaces the configuration of a step. The configuration must
// belong to the step's kind; the stored result is normalized.
func (g Graph) UpdateStepConfig(stepID string, config models.StepConfig) (Graph, error) {
	i := g.stepIndex(stepID)
	if i < 0 {
		return g, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	step := g.Steps[i]
	if config != nil && config.Kind() != step.Kind {
		return g, fmt.Errorf("%w: %s config on %s step", ErrConfigKindMismatch, config.Kind(), step.Kind)
	}

	step.Config = config

	next := g.clone()
	next.Steps[i] = catalog.Normalize(step)

	return next, nil
}

// AddConnection appends conn once the validator accepts it.
func (g Graph) AddConnection(validator *Validator, conn models.Connection) (Graph, error) {
	if err := validator.Validate(g, conn); err != nil {
		return g, err
	}

	next := g.clone()
	next.Connections = append(next.Connections, conn)

	return next, nil
}

// RemoveConnection removes a connection by id.
func (g Graph) RemoveConnection(connectionID string) (Graph, error) {
	i := slices.IndexFunc(g.Connections, func(c models.Connection) bool {
		return c.ID == connectionID
	})
	if i < 0 {
		return g, fmt.Errorf("%w: %s", ErrConnectionNotFound, connectionID)
	}

	next := g.clone()
	next.Connections = slices.Delete(next.Connections, i, i+1)

	return next, nil
}

func (g Graph) stepIndex(id string) int {
	return slices.IndexFunc(g.Steps, func(s models.Step) bool {
		return s.ID == id
	})
}

func (g Graph) clone() Graph {
	return New(g.Steps, g.Connections)
}
