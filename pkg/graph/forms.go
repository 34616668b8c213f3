package graph

import "github.com/dukex/automations/pkg/models"

// FormLookup gives the validator read access to a snapshot of the forms the graph
// refers to. Implementations must not perform I/O.
type FormLookup interface {
	Form(id string) (models.Form, bool)
}

// FormSet is an in-memory FormLookup keyed by form id.
type FormSet map[string]models.Form

func (s FormSet) Form(id string) (models.Form, bool) {
	form, ok := s[id]

	return form, ok
}

// FormIDs returns the form ids referenced by the form submission triggers of g.
func FormIDs(g Graph) []string {
	var ids []string

	seen := make(map[string]struct{})

	for _, step := range g.Steps {
		if !step.IsFormSubmissionTrigger() {
			continue
		}

		config, _ := step.Config.(models.TriggerConfig)
		if config.ElementID == "" {
			continue
		}

		if _, ok := seen[config.ElementID]; ok {
			continue
		}

		seen[config.ElementID] = struct{}{}
		ids = append(ids, config.ElementID)
	}

	return ids
}
