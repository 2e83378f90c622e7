// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/zapflow/zapflow/pkg/channels/gochannel"
	"github.com/zapflow/zapflow/pkg/channels/kafka"
	"github.com/zapflow/zapflow/pkg/eventbus"
)

func NewEventBus(provider string, kafkaBrokers []string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.NewChannel(kafka.Config{
			Brokers:     kafkaBrokers,
			ServiceName: "zapflow",
		}, watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel":
		pubSub := gochannel.NewChannel(watermill.NewSlogLogger(logger))

		return eventbus.NewWatermillEventBus(pubSub, pubSub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
