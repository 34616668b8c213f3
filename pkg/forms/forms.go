// Package forms gives the automation core read access to the bio's forms.
package forms

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/dukex/automations/pkg/config"
	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/models"
)

// ErrFormNotFound is returned by providers when a form id is unknown.
var ErrFormNotFound = errors.New("form not found")

// Provider looks up forms by id.
type Provider interface {
	FormByID(ctx context.Context, id string) (models.Form, error)
}

// Static is an in-memory Provider.
type Static struct {
	mu    sync.RWMutex
	forms map[string]models.Form
}

// NewStatic creates a provider holding the given forms.
func NewStatic(forms ...models.Form) *Static {
	s := &Static{forms: make(map[string]models.Form, len(forms))}
	for _, form := range forms {
		s.forms[form.ID] = form
	}

	return s
}

// LoadFile creates a provider from a forms YAML file. An empty path yields an
// empty provider.
func LoadFile(path string) (*Static, error) {
	forms, err := config.LoadFormsConfigOrDefault(path)
	if err != nil {
		return nil, err
	}

	return NewStatic(forms...), nil
}

func (s *Static) FormByID(_ context.Context, id string) (models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, ok := s.forms[id]
	if !ok {
		return models.Form{}, fmt.Errorf("%w: %s", ErrFormNotFound, id)
	}

	return form, nil
}

// Put adds or replaces a form.
func (s *Static) Put(form models.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forms[form.ID] = form
}

// All returns a copy of every form held by the provider.
func (s *Static) All() map[string]models.Form {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.forms)
}

// Snapshot resolves the given form ids into a FormSet for the validator. Unknown
// forms are left out so the validator reports them; any other provider error is
// returned.
func Snapshot(ctx context.Context, provider Provider, ids []string) (graph.FormSet, error) {
	set := make(graph.FormSet, len(ids))

	for _, id := range ids {
		form, err := provider.FormByID(ctx, id)
		if errors.Is(err, ErrFormNotFound) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to load form %s: %w", id, err)
		}

		set[id] = form
	}

	return set, nil
}
