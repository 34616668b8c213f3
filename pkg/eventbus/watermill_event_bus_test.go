package eventbus_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/automations/pkg/channels/gochannel"
	"github.com/dukex/automations/pkg/eventbus"
	"github.com/dukex/automations/pkg/events"
	"github.com/dukex/automations/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.AutomationActivated, 1)

	require.NoError(t, bus.Handle(events.AutomationActivatedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.AutomationActivated)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	automation := &models.Automation{ID: "automation-1", OwnerID: "bio-1", Name: "Welcome"}
	require.NoError(t, bus.Publish(ctx, automation.ID, events.NewAutomationActivated(automation)))

	select {
	case event := <-received:
		assert.Equal(t, "automation-1", event.AutomationID)
		assert.Equal(t, "bio-1", event.OwnerID)
		assert.Equal(t, "Welcome", event.Automation.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_IgnoresUnhandledTypes(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saved := make(chan struct{}, 1)

	require.NoError(t, bus.Handle(events.AutomationSavedEvent, func(context.Context, any) error {
		saved <- struct{}{}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	automation := &models.Automation{ID: "automation-1", OwnerID: "bio-1"}
	require.NoError(t, bus.Publish(ctx, automation.ID, events.NewAutomationDeactivated(automation)))
	require.NoError(t, bus.Publish(ctx, automation.ID, events.NewAutomationSaved(automation)))

	select {
	case <-saved:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for saved event")
	}
}

func TestWatermillEventBus_HandlerErrorDoesNotStopSubscription(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 10)

	require.NoError(t, bus.Handle(events.AutomationSavedEvent, func(_ context.Context, event any) error {
		saved := event.(*events.AutomationSaved)
		calls <- saved.AutomationID

		if saved.AutomationID == "fails" {
			return errors.New("handler failed")
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "ok", events.NewAutomationSaved(&models.Automation{ID: "ok"})))

	select {
	case id := <-calls:
		assert.Equal(t, "ok", id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
