package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/forms"
	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/mocks"
	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/dukex/automations/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAutomationID = "automation-123"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAutomations(p *mocks.MockPersistence, bus *mocks.MockEventBus, formProvider forms.Provider) *Automations {
	if bus == nil {
		return NewAutomations(p, formProvider, nil, discardLogger())
	}

	return NewAutomations(p, formProvider, bus, discardLogger())
}

func welcomeAutomation() *models.Automation {
	automation := testutil.CreateTestAutomation("bio-1",
		[]models.Step{
			testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithTrigger(models.TriggerEventNewSubscriber)),
			testutil.CreateTestStep(testutil.WithID("email")),
		},
		[]models.Connection{testutil.Connect("c1", "trigger", "email")},
	)
	automation.ID = testAutomationID

	return automation
}

func TestAutomations_Create(t *testing.T) {
	tests := []struct {
		name          string
		req           CreateRequest
		setupMocks    func(*mocks.MockPersistence, *mocks.MockEventBus)
		expectedError error
		expectedRule  graph.Rule
	}{
		{
			name: "success",
			req: CreateRequest{
				OwnerID:     "bio-1",
				Name:        " Welcome ",
				Steps:       welcomeAutomation().Steps,
				Connections: welcomeAutomation().Connections,
			},
			setupMocks: func(p *mocks.MockPersistence, bus *mocks.MockEventBus) {
				p.On("CreateAutomation", mock.Anything, "bio-1", "Welcome", mock.Anything, mock.Anything).
					Return(welcomeAutomation(), nil)
				bus.On("Publish", mock.Anything, testAutomationID, mock.AnythingOfType("*events.AutomationSaved")).
					Return(nil)
			},
		},
		{
			name:          "empty owner",
			req:           CreateRequest{OwnerID: "  ", Name: "Welcome"},
			expectedError: ErrEmptyOwnerID,
		},
		{
			name:          "empty name",
			req:           CreateRequest{OwnerID: "bio-1"},
			expectedError: ErrAutomationNameRequired,
		},
		{
			name: "unknown step kind",
			req: CreateRequest{
				OwnerID: "bio-1",
				Name:    "Welcome",
				Steps:   []models.Step{{ID: "s1", Kind: "sms"}},
			},
			expectedError: models.ErrUnknownStepKind,
		},
		{
			name: "rejected connection is not stored",
			req: CreateRequest{
				OwnerID: "bio-1",
				Name:    "Signup",
				Steps: []models.Step{
					testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithFormTrigger("")),
					testutil.CreateTestStep(testutil.WithID("email")),
				},
				Connections: []models.Connection{testutil.Connect("c1", "trigger", "email")},
			},
			expectedError: graph.ErrConnectionRejected,
			expectedRule:  graph.RuleFormRequired,
		},
		{
			name: "persistence failure",
			req:  CreateRequest{OwnerID: "bio-1", Name: "Welcome"},
			setupMocks: func(p *mocks.MockPersistence, _ *mocks.MockEventBus) {
				p.On("CreateAutomation", mock.Anything, "bio-1", "Welcome", []models.Step{}, []models.Connection{}).
					Return(nil, assert.AnError)
			},
			expectedError: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mocks.MockPersistence{}
			bus := &mocks.MockEventBus{}

			if tt.setupMocks != nil {
				tt.setupMocks(p, bus)
			}

			automation, err := newTestAutomations(p, bus, nil).Create(context.Background(), tt.req)

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, automation)

				if tt.expectedRule != "" {
					rejection, ok := graph.IsRejection(err)
					require.True(t, ok)
					assert.Equal(t, tt.expectedRule, rejection.Rule)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, testAutomationID, automation.ID)
			}

			p.AssertExpectations(t)
			bus.AssertExpectations(t)
		})
	}
}

func TestAutomations_Create_NormalizesSteps(t *testing.T) {
	p := &mocks.MockPersistence{}

	var stored []models.Step

	p.On("CreateAutomation", mock.Anything, "bio-1", "Welcome", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(3).([]models.Step)
		}).
		Return(welcomeAutomation(), nil)

	_, err := newTestAutomations(p, nil, nil).Create(context.Background(), CreateRequest{
		OwnerID: "bio-1",
		Name:    "Welcome",
		Steps:   []models.Step{{ID: "delay", Kind: models.StepKindDelay}},
	})
	require.NoError(t, err)

	require.Len(t, stored, 1)
	assert.Equal(t, models.DelayConfig{Amount: 1, Unit: models.DurationUnitDays}, stored[0].Config)
	assert.True(t, catalog.IsNormalized(stored[0]))
}

func TestAutomations_Get(t *testing.T) {
	p := &mocks.MockPersistence{}
	p.On("GetAutomationByID", mock.Anything, "missing").
		Return(nil, persistence.NewAutomationError("GetAutomationByID", "missing", persistence.ErrAutomationNotFound))
	p.On("GetAutomationByID", mock.Anything, "nil-result").Return(nil, nil)

	s := newTestAutomations(p, nil, nil)

	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAutomationNotFound)
	assert.True(t, IsNotFoundError(err))

	_, err = s.Get(context.Background(), "nil-result")
	require.ErrorIs(t, err, ErrAutomationNotFound)
}

func TestAutomations_ListByOwner(t *testing.T) {
	p := &mocks.MockPersistence{}
	p.On("ListAutomationsByOwner", mock.Anything, "bio-1").Return(nil, nil)

	s := newTestAutomations(p, nil, nil)

	automations, err := s.ListByOwner(context.Background(), " bio-1 ")
	require.NoError(t, err)
	assert.NotNil(t, automations)
	assert.Empty(t, automations)

	_, err = s.ListByOwner(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyOwnerID)
}

func TestAutomations_Save(t *testing.T) {
	t.Run("replaces graph and name", func(t *testing.T) {
		p := &mocks.MockPersistence{}
		bus := &mocks.MockEventBus{}

		existing := welcomeAutomation()
		name := "Renamed"

		p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(existing, nil)
		p.On("UpdateAutomation", mock.Anything, testAutomationID, mock.MatchedBy(func(u persistence.AutomationUpdate) bool {
			return u.Name != nil && *u.Name == "Renamed" && len(u.Steps) == 1 && len(u.Connections) == 0
		})).Return(existing, nil)
		bus.On("Publish", mock.Anything, testAutomationID, mock.AnythingOfType("*events.AutomationSaved")).Return(nil)

		_, err := newTestAutomations(p, bus, nil).Save(context.Background(), testAutomationID, SaveRequest{
			Name:  &name,
			Steps: existing.Steps[:1],
		})
		require.NoError(t, err)

		p.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("active automation", func(t *testing.T) {
		p := &mocks.MockPersistence{}

		existing := welcomeAutomation()
		existing.IsActive = true

		p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(existing, nil)

		_, err := newTestAutomations(p, nil, nil).Save(context.Background(), testAutomationID, SaveRequest{})
		require.ErrorIs(t, err, ErrCannotModifyActive)
		assert.True(t, IsConflictError(err))
		p.AssertNotCalled(t, "UpdateAutomation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty name", func(t *testing.T) {
		p := &mocks.MockPersistence{}
		p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(welcomeAutomation(), nil)

		blank := " "

		_, err := newTestAutomations(p, nil, nil).Save(context.Background(), testAutomationID, SaveRequest{Name: &blank})
		require.ErrorIs(t, err, ErrAutomationNameRequired)
	})

	t.Run("invalid connection", func(t *testing.T) {
		p := &mocks.MockPersistence{}
		p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(welcomeAutomation(), nil)

		existing := welcomeAutomation()

		_, err := newTestAutomations(p, nil, nil).Save(context.Background(), testAutomationID, SaveRequest{
			Steps:       existing.Steps,
			Connections: []models.Connection{testutil.Connect("c1", "email", "trigger")},
		})
		require.ErrorIs(t, err, graph.ErrInvalidConnection)
		p.AssertNotCalled(t, "UpdateAutomation", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAutomations_Activate(t *testing.T) {
	scheduleTrigger := func(cron string) models.Step {
		return testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithKind(models.StepKindTrigger),
			testutil.WithConfig(models.TriggerConfig{EventType: models.TriggerEventSchedule, CronExpression: cron}))
	}

	tests := []struct {
		name          string
		automation    func() *models.Automation
		publishErr    error
		expectedError error
	}{
		{
			name:       "success",
			automation: welcomeAutomation,
		},
		{
			name:       "publish failure is not returned",
			automation: welcomeAutomation,
			publishErr: errors.New("broker down"),
		},
		{
			name: "no name",
			automation: func() *models.Automation {
				a := welcomeAutomation()
				a.Name = ""

				return a
			},
			expectedError: ErrAutomationNameRequired,
		},
		{
			name: "no steps",
			automation: func() *models.Automation {
				a := welcomeAutomation()
				a.Steps = nil
				a.Connections = nil

				return a
			},
			expectedError: ErrStepsRequired,
		},
		{
			name: "no trigger",
			automation: func() *models.Automation {
				a := welcomeAutomation()
				a.Steps = a.Steps[1:]
				a.Connections = nil

				return a
			},
			expectedError: ErrTriggerStepRequired,
		},
		{
			name: "invalid schedule",
			automation: func() *models.Automation {
				a := welcomeAutomation()
				a.Steps[0] = scheduleTrigger("every monday")

				return a
			},
			expectedError: catalog.ErrInvalidCronExpression,
		},
		{
			name: "form trigger without form",
			automation: func() *models.Automation {
				a := welcomeAutomation()
				a.Steps[0] = testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithFormTrigger("missing"))

				return a
			},
			expectedError: graph.ErrConnectionRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mocks.MockPersistence{}
			bus := &mocks.MockEventBus{}

			automation := tt.automation()
			p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(automation, nil)

			if tt.expectedError == nil {
				activated := *automation
				activated.IsActive = true

				p.On("ActivateAutomation", mock.Anything, testAutomationID).Return(&activated, nil)
				bus.On("Publish", mock.Anything, testAutomationID, mock.AnythingOfType("*events.AutomationActivated")).
					Return(tt.publishErr)
			}

			result, err := newTestAutomations(p, bus, nil).Activate(context.Background(), testAutomationID)

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				p.AssertNotCalled(t, "ActivateAutomation", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.True(t, result.IsActive)
			}

			p.AssertExpectations(t)
			bus.AssertExpectations(t)
		})
	}
}

func TestAutomations_Activate_AlreadyActive(t *testing.T) {
	p := &mocks.MockPersistence{}
	bus := &mocks.MockEventBus{}

	automation := welcomeAutomation()
	automation.IsActive = true

	p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(automation, nil)

	result, err := newTestAutomations(p, bus, nil).Activate(context.Background(), testAutomationID)
	require.NoError(t, err)
	assert.Same(t, automation, result)

	p.AssertNotCalled(t, "ActivateAutomation", mock.Anything, mock.Anything)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestAutomations_Activate_FormTriggerWithForm(t *testing.T) {
	p := &mocks.MockPersistence{}

	automation := welcomeAutomation()
	automation.Steps[0] = testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithFormTrigger("f1"))

	p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(automation, nil)
	p.On("ActivateAutomation", mock.Anything, testAutomationID).Return(automation, nil)

	_, err := newTestAutomations(p, nil, forms.NewStatic(testutil.EmailForm("f1"))).
		Activate(context.Background(), testAutomationID)
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestAutomations_Deactivate(t *testing.T) {
	p := &mocks.MockPersistence{}
	bus := &mocks.MockEventBus{}

	automation := welcomeAutomation()
	automation.IsActive = true

	deactivated := *automation
	deactivated.IsActive = false

	p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(automation, nil)
	p.On("DeactivateAutomation", mock.Anything, testAutomationID).Return(&deactivated, nil)
	bus.On("Publish", mock.Anything, testAutomationID, mock.AnythingOfType("*events.AutomationDeactivated")).Return(nil)

	result, err := newTestAutomations(p, bus, nil).Deactivate(context.Background(), testAutomationID)
	require.NoError(t, err)
	assert.False(t, result.IsActive)

	p.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestAutomations_Delete(t *testing.T) {
	t.Run("inactive", func(t *testing.T) {
		p := &mocks.MockPersistence{}
		p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(welcomeAutomation(), nil)
		p.On("DeleteAutomation", mock.Anything, testAutomationID).Return(nil)

		require.NoError(t, newTestAutomations(p, nil, nil).Delete(context.Background(), testAutomationID))
		p.AssertExpectations(t)
	})

	t.Run("active", func(t *testing.T) {
		p := &mocks.MockPersistence{}

		automation := welcomeAutomation()
		automation.IsActive = true

		p.On("GetAutomationByID", mock.Anything, testAutomationID).Return(automation, nil)

		err := newTestAutomations(p, nil, nil).Delete(context.Background(), testAutomationID)
		require.ErrorIs(t, err, ErrCannotModifyActive)
		p.AssertNotCalled(t, "DeleteAutomation", mock.Anything, mock.Anything)
	})
}

func TestAutomations_HealthCheck(t *testing.T) {
	p := &mocks.MockPersistence{}
	p.On("HealthCheck", mock.Anything).Return(nil).Once()
	p.On("HealthCheck", mock.Anything).Return(errors.New("connection refused")).Once()

	s := newTestAutomations(p, nil, nil)

	message, healthy := s.HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, healthy = s.HealthCheck(context.Background())
	assert.False(t, healthy)
	assert.Contains(t, message, "connection refused")
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		notFound   bool
		conflict   bool
	}{
		{"owner", ErrEmptyOwnerID, true, false, false},
		{"wrapped trigger", NewValidationError("op", "CODE", "msg", ErrTriggerStepRequired), true, false, false},
		{"step data", catalog.ErrInvalidStepData, true, false, false},
		{"automation", persistence.NewAutomationError("get", "a1", persistence.ErrAutomationNotFound), false, true, false},
		{"step", graph.ErrStepNotFound, false, true, false},
		{"active", ErrCannotModifyActive, false, false, true},
		{"rejection", graph.ErrConnectionRejected, false, false, false},
		{"other", assert.AnError, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.conflict, IsConflictError(tt.err))
		})
	}
}

func TestServiceError(t *testing.T) {
	err := NewValidationError("activate", "INVALID_SCHEDULE", "bad cron", catalog.ErrInvalidCronExpression)

	assert.Equal(t, "activate: bad cron", err.Error())
	require.ErrorIs(t, err, catalog.ErrInvalidCronExpression)

	err = &ServiceError{Op: "activate", Err: assert.AnError}
	assert.Contains(t, err.Error(), assert.AnError.Error())
}

func TestAutomations_Create_FormProviderFailure(t *testing.T) {
	p := &mocks.MockPersistence{}
	formProvider := &mocks.MockFormProvider{}
	formProvider.On("FormByID", mock.Anything, "f1").Return(models.Form{}, errors.New("forms service unavailable"))

	_, err := newTestAutomations(p, nil, formProvider).Create(context.Background(), CreateRequest{
		OwnerID: "bio-1",
		Name:    "Signup",
		Steps: []models.Step{
			testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithFormTrigger("f1")),
			testutil.CreateTestStep(testutil.WithID("email")),
		},
		Connections: []models.Connection{testutil.Connect("c1", "trigger", "email")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load forms")
	assert.False(t, IsValidationError(err))

	formProvider.AssertExpectations(t)
	p.AssertNotCalled(t, "CreateAutomation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
