package mocks

import (
	"context"

	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) CreateAutomation(ctx context.Context, ownerID, name string, steps []models.Step, connections []models.Connection) (*models.Automation, error) {
	args := m.Called(ctx, ownerID, name, steps, connections)

	return automationOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPersistence) UpdateAutomation(ctx context.Context, id string, update persistence.AutomationUpdate) (*models.Automation, error) {
	args := m.Called(ctx, id, update)

	return automationOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPersistence) ActivateAutomation(ctx context.Context, id string) (*models.Automation, error) {
	args := m.Called(ctx, id)

	return automationOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPersistence) DeactivateAutomation(ctx context.Context, id string) (*models.Automation, error) {
	args := m.Called(ctx, id)

	return automationOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPersistence) GetAutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	args := m.Called(ctx, id)

	return automationOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPersistence) ListAutomationsByOwner(ctx context.Context, ownerID string) ([]*models.Automation, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Automation), args.Error(1)
}

func (m *MockPersistence) DeleteAutomation(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func automationOrNil(v any) *models.Automation {
	if v == nil {
		return nil
	}

	return v.(*models.Automation)
}
