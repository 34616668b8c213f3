package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/eventbus"
	"github.com/dukex/automations/pkg/events"
	"github.com/dukex/automations/pkg/forms"
	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/otelhelper"
	"github.com/dukex/automations/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dukex/automations/pkg/services"

// Automations handles the lifecycle of automations: creation, whole-graph saves,
// activation and deactivation.
type Automations struct {
	persistence persistence.Persistence
	forms       forms.Provider
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewAutomations creates a new automations service. A nil form provider behaves
// like one without forms; a nil publisher disables lifecycle events.
func NewAutomations(
	persistence persistence.Persistence,
	formProvider forms.Provider,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Automations {
	if formProvider == nil {
		formProvider = forms.NewStatic()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Automations{
		persistence: persistence,
		forms:       formProvider,
		publisher:   publisher,
		logger:      logger.With("service", "automations"),
		tracer:      otelhelper.Tracer(tracerName),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Automations) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateRequest contains the initial content of a new automation.
type CreateRequest struct {
	OwnerID     string
	Name        string
	Steps       []models.Step
	Connections []models.Connection
}

// Create stores a new inactive automation. Steps are normalized and every
// connection must be accepted by the validator.
func (s *Automations) Create(ctx context.Context, req CreateRequest) (automation *models.Automation, err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "automations.create",
		attribute.String(otelhelper.OwnerIDKey, req.OwnerID))
	defer func() { finishSpan(span, err) }()

	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		return nil, ErrEmptyOwnerID
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrAutomationNameRequired
	}

	g, err := s.buildGraph(ctx, req.Steps, req.Connections)
	if err != nil {
		return nil, err
	}

	automation, err = s.persistence.CreateAutomation(ctx, ownerID, name, g.Steps, g.Connections)
	if err != nil {
		return nil, fmt.Errorf("failed to create automation: %w", err)
	}

	s.logger.InfoContext(ctx, "Automation created", "automation_id", automation.ID, "owner_id", ownerID)
	s.publish(ctx, automation.ID, events.NewAutomationSaved(automation))

	return automation, nil
}

// Get retrieves an automation by its ID.
func (s *Automations) Get(ctx context.Context, id string) (*models.Automation, error) {
	automation, err := s.persistence.GetAutomationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if automation == nil {
		return nil, ErrAutomationNotFound
	}

	return automation, nil
}

// ListByOwner returns every automation of a workspace.
func (s *Automations) ListByOwner(ctx context.Context, ownerID string) ([]*models.Automation, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrEmptyOwnerID
	}

	automations, err := s.persistence.ListAutomationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}

	if automations == nil {
		automations = []*models.Automation{}
	}

	return automations, nil
}

// SaveRequest replaces the name and graph of an automation. A nil Name keeps the
// current one.
type SaveRequest struct {
	Name        *string
	Steps       []models.Step
	Connections []models.Connection
}

// Save replaces the whole graph of an inactive automation. Every connection is
// validated again against the submitted graph. Concurrent saves are last-write-wins.
func (s *Automations) Save(ctx context.Context, id string, req SaveRequest) (automation *models.Automation, err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "automations.save",
		attribute.String(otelhelper.AutomationIDKey, id))
	defer func() { finishSpan(span, err) }()

	existing, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}

	update := persistence.AutomationUpdate{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrAutomationNameRequired
		}

		update.Name = &name
	}

	g, err := s.buildGraph(ctx, req.Steps, req.Connections)
	if err != nil {
		return nil, err
	}

	update.Steps = g.Steps
	update.Connections = g.Connections

	return s.update(ctx, existing.ID, update)
}

// Delete removes an inactive automation.
func (s *Automations) Delete(ctx context.Context, id string) (err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "automations.delete",
		attribute.String(otelhelper.AutomationIDKey, id))
	defer func() { finishSpan(span, err) }()

	if _, err := s.editable(ctx, id); err != nil {
		return err
	}

	err = s.persistence.DeleteAutomation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}

	s.logger.InfoContext(ctx, "Automation deleted", "automation_id", id)

	return nil
}

// Activate marks an automation as ready for the execution runtime and publishes
// an automation.activated event. Activating an active automation is a no-op.
func (s *Automations) Activate(ctx context.Context, id string) (automation *models.Automation, err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "automations.activate",
		attribute.String(otelhelper.AutomationIDKey, id))
	defer func() { finishSpan(span, err) }()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.IsActive {
		return existing, nil
	}

	if err := s.validateForActivation(ctx, existing); err != nil {
		return nil, err
	}

	automation, err = s.persistence.ActivateAutomation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to activate automation: %w", err)
	}

	s.logger.InfoContext(ctx, "Automation activated", "automation_id", id, "steps", len(automation.Steps))
	s.publish(ctx, automation.ID, events.NewAutomationActivated(automation))

	return automation, nil
}

// Deactivate stops an automation and publishes an automation.deactivated event.
// Deactivating an inactive automation is a no-op.
func (s *Automations) Deactivate(ctx context.Context, id string) (automation *models.Automation, err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "automations.deactivate",
		attribute.String(otelhelper.AutomationIDKey, id))
	defer func() { finishSpan(span, err) }()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !existing.IsActive {
		return existing, nil
	}

	automation, err = s.persistence.DeactivateAutomation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate automation: %w", err)
	}

	s.logger.InfoContext(ctx, "Automation deactivated", "automation_id", id)
	s.publish(ctx, automation.ID, events.NewAutomationDeactivated(automation))

	return automation, nil
}

// validateForActivation ensures an automation is ready to run.
func (s *Automations) validateForActivation(ctx context.Context, automation *models.Automation) error {
	if strings.TrimSpace(automation.Name) == "" {
		return ErrAutomationNameRequired
	}

	if len(automation.Steps) == 0 {
		return ErrStepsRequired
	}

	triggers := automation.TriggerSteps()
	if len(triggers) == 0 {
		return ErrTriggerStepRequired
	}

	for _, trigger := range triggers {
		config, _ := trigger.Config.(models.TriggerConfig)
		if config.EventType != models.TriggerEventSchedule {
			continue
		}

		if err := catalog.ValidateCron(config.CronExpression); err != nil {
			return NewValidationError("validateForActivation", "INVALID_SCHEDULE",
				fmt.Sprintf("trigger %s: %v", trigger.ID, err), err)
		}
	}

	g := graph.FromAutomation(automation)

	validator, err := s.validatorFor(ctx, g)
	if err != nil {
		return err
	}

	return graph.ValidateGraph(validator, g)
}

// buildGraph normalizes steps and checks every connection against the graph.
func (s *Automations) buildGraph(ctx context.Context, steps []models.Step, connections []models.Connection) (graph.Graph, error) {
	g := graph.New(nil, nil)

	for _, step := range steps {
		next, err := g.AddStep(step)
		if err != nil {
			return graph.Graph{}, fmt.Errorf("step %s: %w", step.ID, err)
		}

		g = next
	}

	g = graph.New(g.Steps, connections)

	if g.Steps == nil {
		g.Steps = []models.Step{}
	}

	if g.Connections == nil {
		g.Connections = []models.Connection{}
	}

	validator, err := s.validatorFor(ctx, g)
	if err != nil {
		return graph.Graph{}, err
	}

	if err := graph.ValidateGraph(validator, g); err != nil {
		return graph.Graph{}, err
	}

	return g, nil
}

// validatorFor snapshots the forms referenced by the graph's form triggers.
func (s *Automations) validatorFor(ctx context.Context, g graph.Graph) (*graph.Validator, error) {
	formSet, err := forms.Snapshot(ctx, s.forms, graph.FormIDs(g))
	if err != nil {
		return nil, fmt.Errorf("failed to load forms: %w", err)
	}

	return graph.NewValidator(formSet), nil
}

// editable loads an automation and fails when it is active.
func (s *Automations) editable(ctx context.Context, id string) (*models.Automation, error) {
	automation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if automation.IsActive {
		return nil, ErrCannotModifyActive
	}

	return automation, nil
}

func (s *Automations) update(ctx context.Context, id string, update persistence.AutomationUpdate) (*models.Automation, error) {
	automation, err := s.persistence.UpdateAutomation(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update automation: %w", err)
	}

	s.publish(ctx, automation.ID, events.NewAutomationSaved(automation))

	return automation, nil
}

// publish sends a lifecycle event. The change is already stored, so a failure is
// logged and not returned.
func (s *Automations) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, key, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish automation event",
			"automation_id", key,
			"event_type", event.GetType(),
			"error", err)
	}
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		attrs := []attribute.KeyValue{}
		if rejection, ok := graph.IsRejection(err); ok {
			attrs = append(attrs, attribute.String(otelhelper.RejectionRuleKey, string(rejection.Rule)))
		}

		otelhelper.SetError(span, err, attrs...)
	}

	span.End()
}
