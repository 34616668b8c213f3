// Package catalog is the static registry of step kinds: display metadata, output
// ports, configuration schema and default configuration for each kind.
package catalog

import (
	"fmt"
	"slices"

	"github.com/dukex/automations/pkg/models"
)

// Category groups step kinds in the canvas palette.
type Category string

const (
	CategoryTrigger     Category = "trigger"
	CategoryAction      Category = "action"
	CategoryLogic       Category = "logic"
	CategoryIntegration Category = "integration"
)

// Condition step output ports.
const (
	PortTrue  = "true"
	PortFalse = "false"
)

// Entry describes one step kind.
type Entry struct {
	Kind         models.StepKind    `json:"kind"`
	Label        string             `json:"label"`
	Description  string             `json:"description"`
	Category     Category           `json:"category"`
	OutputPorts  []string           `json:"output_ports,omitempty"` // Empty means a single unnamed output
	AcceptsInput bool               `json:"accepts_input"`
	Schema       *models.JSONSchema `json:"schema"`

	defaults func() models.StepConfig
}

// DefaultConfig returns a fresh, fully normalized configuration for the kind.
func (e Entry) DefaultConfig() models.StepConfig {
	return e.defaults()
}

// HasPort reports whether port is a valid source port for steps of this kind.
func (e Entry) HasPort(port string) bool {
	if len(e.OutputPorts) == 0 {
		return port == ""
	}

	return slices.Contains(e.OutputPorts, port)
}

var entries = map[models.StepKind]Entry{
	models.StepKindTrigger: {
		Kind:        models.StepKindTrigger,
		Label:       "Trigger",
		Description: "Starts the automation when an event happens on the bio",
		Category:    CategoryTrigger,
		Schema:      triggerSchema(),
		defaults: func() models.StepConfig {
			return models.TriggerConfig{EventType: DefaultTriggerEvent}
		},
	},
	models.StepKindAction: {
		Kind:         models.StepKindAction,
		Label:        "Send email",
		Description:  "Sends an email to the subscriber",
		Category:     CategoryAction,
		AcceptsInput: true,
		Schema:       emailSchema(),
		defaults: func() models.StepConfig {
			return models.EmailConfig{Subject: DefaultEmailSubject, Content: DefaultEmailContent}
		},
	},
	models.StepKindCondition: {
		Kind:         models.StepKindCondition,
		Label:        "Condition",
		Description:  "Continues on the true or false branch",
		Category:     CategoryLogic,
		OutputPorts:  []string{PortTrue, PortFalse},
		AcceptsInput: true,
		Schema:       conditionSchema(),
		defaults: func() models.StepConfig {
			return models.ConditionConfig{Operator: DefaultConditionOperator}
		},
	},
	models.StepKindDelay: {
		Kind:         models.StepKindDelay,
		Label:        "Delay",
		Description:  "Waits before running the next step",
		Category:     CategoryLogic,
		AcceptsInput: true,
		Schema:       delaySchema(),
		defaults: func() models.StepConfig {
			return models.DelayConfig{Amount: DefaultDelayAmount, Unit: models.DurationUnitDays}
		},
	},
	models.StepKindStripeDiscount: {
		Kind:         models.StepKindStripeDiscount,
		Label:        "Stripe discount",
		Description:  "Creates a single-use promotion code in Stripe",
		Category:     CategoryIntegration,
		AcceptsInput: true,
		Schema:       stripeDiscountSchema(),
		defaults: func() models.StepConfig {
			return normalizeStripeDiscount(models.StripeDiscountConfig{})
		},
	},
	models.StepKindWebhook: {
		Kind:         models.StepKindWebhook,
		Label:        "Webhook",
		Description:  "Calls an external URL with the subscriber data",
		Category:     CategoryIntegration,
		AcceptsInput: true,
		Schema:       webhookSchema(),
		defaults: func() models.StepConfig {
			return models.WebhookConfig{Method: DefaultWebhookMethod}
		},
	},
}

// Lookup returns the catalog entry for a step kind.
func Lookup(kind models.StepKind) (Entry, bool) {
	entry, ok := entries[kind]

	return entry, ok
}

// Resolve is like Lookup but fails with models.ErrUnknownStepKind.
func Resolve(kind models.StepKind) (Entry, error) {
	entry, ok := entries[kind]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", models.ErrUnknownStepKind, kind)
	}

	return entry, nil
}

// All returns every entry in palette order.
func All() []Entry {
	all := make([]Entry, 0, len(models.StepKinds))
	for _, kind := range models.StepKinds {
		all = append(all, entries[kind])
	}

	return all
}
