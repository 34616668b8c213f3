package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/automations/pkg/channels/gochannel"
	"github.com/dukex/automations/pkg/channels/kafka"
	"github.com/dukex/automations/pkg/eventbus"
)

// NewEventBus creates the lifecycle event bus. "gochannel" keeps events in process;
// "kafka" publishes to the given brokers.
func NewEventBus(provider string, brokers []string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), brokers, "automations")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
