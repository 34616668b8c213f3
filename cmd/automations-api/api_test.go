package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/automations/pkg/channels/gochannel"
	"github.com/dukex/automations/pkg/eventbus"
	"github.com/dukex/automations/pkg/events"
	"github.com/dukex/automations/pkg/forms"
	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/persistence/file"
	"github.com/dukex/automations/pkg/templates"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, bus eventbus.EventBus) *fiber.App {
	t.Helper()

	library, err := templates.Default()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := NewAPI(
		logger,
		file.NewPersistence(t.TempDir()),
		forms.NewStatic(),
		library,
		bus,
	)

	return api.App()
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return body
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Automations API", string(readBody(t, resp)))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(readBody(t, resp)))
}

func TestAPI_ActivationPublishesEvent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	activated := make(chan *events.AutomationActivated, 1)

	require.NoError(t, bus.Handle(events.AutomationActivatedEvent, func(_ context.Context, event any) error {
		activated <- event.(*events.AutomationActivated)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	app := setupTestApp(t, bus)

	payload, err := json.Marshal(map[string]string{"ownerId": "bio-1", "name": "Welcome", "templateId": "welcome"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/automations", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Automation
	require.NoError(t, json.Unmarshal(readBody(t, resp), &created))

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/automations/"+created.ID+"/activate", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case event := <-activated:
		assert.Equal(t, created.ID, event.AutomationID)
		assert.Len(t, event.Automation.Steps, 2)
		assert.True(t, event.Automation.IsActive)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for automation.activated")
	}
}
