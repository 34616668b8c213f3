package mocks

import (
	"context"

	"github.com/dukex/automations/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockFormProvider is a mock implementation of forms.Provider interface.
type MockFormProvider struct {
	mock.Mock
}

func (m *MockFormProvider) FormByID(ctx context.Context, id string) (models.Form, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(models.Form), args.Error(1)
}
