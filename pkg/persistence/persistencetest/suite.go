// Package persistencetest holds the behaviour every persistence.Persistence
// implementation must share. Adapter tests run it against their backend.
package persistencetest

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/dukex/automations/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty persistence for a single test.
type Factory func(t *testing.T) persistence.Persistence

// Run executes the shared persistence test suite.
func Run(t *testing.T, newPersistence Factory) {
	t.Helper()

	tests := []struct {
		name string
		run  func(t *testing.T, ctx context.Context, p persistence.Persistence)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"GetNotFound", testGetNotFound},
		{"Update", testUpdate},
		{"UpdatePartial", testUpdatePartial},
		{"UpdateNotFound", testUpdateNotFound},
		{"ActivateDeactivate", testActivateDeactivate},
		{"ListByOwner", testListByOwner},
		{"Delete", testDelete},
		{"HealthCheck", testHealthCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPersistence(t)
			tt.run(t, context.Background(), p)
		})
	}
}

func sampleGraph() ([]models.Step, []models.Connection) {
	trigger := testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithFormTrigger("form-1"), testutil.WithPosition(250, 50))
	email := testutil.CreateTestStep(testutil.WithID("email"))
	webhook := testutil.CreateTestStep(
		testutil.WithID("hook"),
		testutil.WithKind(models.StepKindWebhook),
		testutil.WithConfig(models.WebhookConfig{URL: "https://example.com", Method: "POST", Headers: map[string]string{"X-Key": "1"}}),
	)

	return []models.Step{trigger, email, webhook}, []models.Connection{testutil.Connect("c1", "trigger", "email")}
}

func testCreateAndGet(t *testing.T, ctx context.Context, p persistence.Persistence) {
	steps, connections := sampleGraph()

	created, err := p.CreateAutomation(ctx, "bio-1", "Welcome", steps, connections)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.IsActive)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := p.GetAutomationByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "bio-1", got.OwnerID)
	assert.Equal(t, "Welcome", got.Name)
	assert.Equal(t, steps, got.Steps)
	assert.Equal(t, connections, got.Connections)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)
}

func testGetNotFound(t *testing.T, ctx context.Context, p persistence.Persistence) {
	_, err := p.GetAutomationByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func testUpdate(t *testing.T, ctx context.Context, p persistence.Persistence) {
	created, err := p.CreateAutomation(ctx, "bio-1", "Draft", nil, nil)
	require.NoError(t, err)

	steps, connections := sampleGraph()
	name := "Renamed"

	updated, err := p.UpdateAutomation(ctx, created.ID, persistence.AutomationUpdate{
		Name:        &name,
		Steps:       steps,
		Connections: connections,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	got, err := p.GetAutomationByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, steps, got.Steps)
	assert.Equal(t, connections, got.Connections)
}

func testUpdatePartial(t *testing.T, ctx context.Context, p persistence.Persistence) {
	steps, connections := sampleGraph()

	created, err := p.CreateAutomation(ctx, "bio-1", "Welcome", steps, connections)
	require.NoError(t, err)

	_, err = p.UpdateAutomation(ctx, created.ID, persistence.AutomationUpdate{Connections: []models.Connection{}})
	require.NoError(t, err)

	got, err := p.GetAutomationByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got.Name)
	assert.Equal(t, steps, got.Steps)
	assert.Empty(t, got.Connections)
}

func testUpdateNotFound(t *testing.T, ctx context.Context, p persistence.Persistence) {
	name := "x"

	_, err := p.UpdateAutomation(ctx, "00000000-0000-0000-0000-000000000000", persistence.AutomationUpdate{Name: &name})
	require.Error(t, err)
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func testActivateDeactivate(t *testing.T, ctx context.Context, p persistence.Persistence) {
	created, err := p.CreateAutomation(ctx, "bio-1", "Welcome", nil, nil)
	require.NoError(t, err)

	activated, err := p.ActivateAutomation(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	require.NotNil(t, activated.ActivatedAt)

	got, err := p.GetAutomationByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.ActivatedAt)

	deactivated, err := p.DeactivateAutomation(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	assert.Nil(t, deactivated.ActivatedAt)

	got, err = p.GetAutomationByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Nil(t, got.ActivatedAt)

	_, err = p.ActivateAutomation(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func testListByOwner(t *testing.T, ctx context.Context, p persistence.Persistence) {
	first, err := p.CreateAutomation(ctx, "bio-1", "First", nil, nil)
	require.NoError(t, err)

	second, err := p.CreateAutomation(ctx, "bio-1", "Second", nil, nil)
	require.NoError(t, err)

	_, err = p.CreateAutomation(ctx, "bio-2", "Other", nil, nil)
	require.NoError(t, err)

	automations, err := p.ListAutomationsByOwner(ctx, "bio-1")
	require.NoError(t, err)
	require.Len(t, automations, 2)

	ids := []string{automations[0].ID, automations[1].ID}
	assert.Equal(t, []string{first.ID, second.ID}, ids, "listed oldest first")

	none, err := p.ListAutomationsByOwner(ctx, "bio-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDelete(t *testing.T, ctx context.Context, p persistence.Persistence) {
	created, err := p.CreateAutomation(ctx, "bio-1", "Welcome", nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.DeleteAutomation(ctx, created.ID))

	_, err = p.GetAutomationByID(ctx, created.ID)
	assert.True(t, persistence.IsAutomationNotFound(err))

	remaining, err := p.ListAutomationsByOwner(ctx, "bio-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	err = p.DeleteAutomation(ctx, created.ID)
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func testHealthCheck(t *testing.T, ctx context.Context, p persistence.Persistence) {
	assert.NoError(t, p.HealthCheck(ctx))
}
