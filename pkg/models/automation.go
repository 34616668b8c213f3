package models

import "time"

// Automation is the aggregate root of a marketing automation: its steps, the
// connections between them and whether the external runtime may execute it.
type Automation struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"ownerId"               validate:"required"`
	Name        string       `json:"name"                  validate:"required,max=255"`
	IsActive    bool         `json:"isActive"`
	Steps       []Step       `json:"nodes"                 validate:"dive"`
	Connections []Connection `json:"edges"                 validate:"dive"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	ActivatedAt *time.Time   `json:"activatedAt,omitempty"`
}

// TriggerSteps returns the trigger steps of the automation.
func (a *Automation) TriggerSteps() []Step {
	var triggers []Step

	for _, step := range a.Steps {
		if step.Kind == StepKindTrigger {
			triggers = append(triggers, step)
		}
	}

	return triggers
}
