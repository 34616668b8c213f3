package graph

import (
	"fmt"
	"slices"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/models"
)

// Rejection reasons shown to the user.
const (
	ReasonSingleFanOut      = "only one email action allowed after a form submission trigger"
	ReasonTargetKind        = "form submission triggers can only connect to an email action"
	ReasonFormNotSelected   = "select a form before connecting this trigger"
	ReasonFormNotFound      = "the selected form could not be found"
	ReasonFormWithoutEmail  = "the selected form must have a required email field"
	ReasonTerminalEmailStep = "no further steps allowed after the email action"
)

// Validator decides whether a proposed connection may be added to a graph. It holds
// a snapshot of the forms referenced by form submission triggers and has no other state.
type Validator struct {
	forms FormLookup
}

// NewValidator creates a validator reading forms from the given snapshot. A nil
// lookup behaves like an empty one.
func NewValidator(forms FormLookup) *Validator {
	if forms == nil {
		forms = FormSet{}
	}

	return &Validator{forms: forms}
}

// Validate returns nil when proposed may be added to g, or a *RejectionError
// describing the first rule it breaks. Structural checks run first, then the
// business rules in order.
func (v *Validator) Validate(g Graph, proposed models.Connection) error {
	source, target, err := v.checkStructure(g, proposed)
	if err != nil {
		return err
	}

	if source.IsFormSubmissionTrigger() {
		if err := v.checkFormTrigger(g, source, target, proposed); err != nil {
			return err
		}

		return checkTerminalDownstream(g, target, proposed)
	}

	if !IsReachableBackward(g, source.ID, TriggerWithEvent(models.TriggerEventFormSubmit)) {
		return nil
	}

	if source.Kind == models.StepKindAction {
		return rejected(RuleTerminalChain, proposed.ID, ReasonTerminalEmailStep)
	}

	return checkTerminalDownstream(g, target, proposed)
}

// checkTerminalDownstream rejects a connection that would put an action with
// outgoing connections downstream of a form submission trigger. target is the
// step the proposed connection leads into.
func checkTerminalDownstream(g Graph, target models.Step, proposed models.Connection) error {
	continues := func(s models.Step) bool {
		return s.Kind == models.StepKindAction && len(g.Outgoing(s.ID)) > 0
	}

	if continues(target) || IsReachableForward(g, target.ID, continues) {
		return rejected(RuleTerminalChain, proposed.ID, ReasonTerminalEmailStep)
	}

	return nil
}

func (v *Validator) checkStructure(g Graph, proposed models.Connection) (models.Step, models.Step, error) {
	if proposed.ID == "" {
		return models.Step{}, models.Step{}, structural(proposed.ID, "connection id is empty")
	}

	source, ok := g.Step(proposed.SourceStepID)
	if !ok {
		return models.Step{}, models.Step{}, structural(proposed.ID, "source step %q does not exist", proposed.SourceStepID)
	}

	target, ok := g.Step(proposed.TargetStepID)
	if !ok {
		return models.Step{}, models.Step{}, structural(proposed.ID, "target step %q does not exist", proposed.TargetStepID)
	}

	if source.ID == target.ID {
		return models.Step{}, models.Step{}, structural(proposed.ID, "step %q cannot connect to itself", source.ID)
	}

	for _, existing := range g.Connections {
		if existing.ID == proposed.ID {
			return models.Step{}, models.Step{}, structural(proposed.ID, "connection id %q already used", proposed.ID)
		}

		if existing.SameEdge(proposed) {
			return models.Step{}, models.Step{}, structural(proposed.ID, "duplicate of connection %q", existing.ID)
		}
	}

	sourceEntry, err := catalog.Resolve(source.Kind)
	if err != nil {
		return models.Step{}, models.Step{}, structural(proposed.ID, "source step %q: %v", source.ID, err)
	}

	if !sourceEntry.HasPort(proposed.SourcePort) {
		return models.Step{}, models.Step{}, structural(proposed.ID, "%s steps have no output port %q", source.Kind, proposed.SourcePort)
	}

	targetEntry, err := catalog.Resolve(target.Kind)
	if err != nil {
		return models.Step{}, models.Step{}, structural(proposed.ID, "target step %q: %v", target.ID, err)
	}

	if !targetEntry.AcceptsInput {
		return models.Step{}, models.Step{}, structural(proposed.ID, "%s steps cannot be connection targets", target.Kind)
	}

	return source, target, nil
}

func (v *Validator) checkFormTrigger(g Graph, trigger, target models.Step, proposed models.Connection) error {
	if len(g.Outgoing(trigger.ID)) > 0 {
		return rejected(RuleSingleFanOut, proposed.ID, ReasonSingleFanOut)
	}

	if target.Kind != models.StepKindAction {
		return rejected(RuleTargetKind, proposed.ID, ReasonTargetKind)
	}

	config, _ := trigger.Config.(models.TriggerConfig)
	if config.ElementID == "" {
		return rejected(RuleFormRequired, proposed.ID, ReasonFormNotSelected)
	}

	form, ok := v.forms.Form(config.ElementID)
	if !ok {
		return rejected(RuleFormRequired, proposed.ID, ReasonFormNotFound)
	}

	if !form.HasRequiredEmailField() {
		return rejected(RuleFormRequired, proposed.ID, ReasonFormWithoutEmail)
	}

	return nil
}

// ValidateGraph checks a whole graph: every step must be known and unique, and
// every connection must be accepted by the validator against the rest of the graph.
// The result does not depend on the order connections were added in.
func ValidateGraph(validator *Validator, g Graph) error {
	steps := Graph{Steps: make([]models.Step, 0, len(g.Steps))}

	for _, step := range g.Steps {
		next, err := steps.AddStep(step)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.ID, err)
		}

		steps = next
	}

	for i, conn := range g.Connections {
		rest := Graph{
			Steps:       g.Steps,
			Connections: slices.Delete(slices.Clone(g.Connections), i, i+1),
		}

		if err := validator.Validate(rest, conn); err != nil {
			return fmt.Errorf("connection %s: %w", conn.ID, err)
		}
	}

	return nil
}
