package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/zapflow/zapflow/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "zapflow-engine",
		EnableShellCompletion: true,
		Usage:                 "Run and manage the workflow execution engine",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the engine worker (recovery + inbound event loop)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "Database connection URL for persistence (postgres:// or memory://)",
						Required: true,
						Sources:  cli.EnvVars("DATABASE_URL"),
					},
					&cli.StringFlag{
						Name:    "redis-url",
						Usage:   "Redis URL for the conversation lock manager (memory:// for single-process)",
						Value:   "memory://",
						Sources: cli.EnvVars("REDIS_URL"),
					},
					&cli.StringFlag{
						Name:    "event-bus",
						Usage:   "Event bus type (kafka, gochannel)",
						Value:   "gochannel",
						Sources: cli.EnvVars("EVENT_BUS_TYPE"),
					},
					&cli.StringSliceFlag{
						Name:    "kafka-brokers",
						Usage:   "Kafka broker addresses for the kafka event bus",
						Sources: cli.EnvVars("KAFKA_BROKERS"),
					},
					&cli.StringSliceFlag{
						Name:    "tenants",
						Usage:   "Tenant IDs served by the cron scheduler",
						Sources: cli.EnvVars("TENANT_IDS"),
					},
					&cli.BoolFlag{
						Name:    "tracing",
						Usage:   "Export OTLP traces",
						Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
					},
					&cli.StringFlag{
						Name:    "log-level",
						Usage:   "Log level (debug, info, warn, error)",
						Value:   "info",
						Sources: cli.EnvVars("LOG_LEVEL"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return run(ctx, command)
				},
			},
			{
				Name:      "activate",
				Usage:     "Validate a workflow definition and mark it active",
				ArgsUsage: "<workflow.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "Database connection URL for persistence (postgres:// or memory://)",
						Required: true,
						Sources:  cli.EnvVars("DATABASE_URL"),
					},
					&cli.StringFlag{
						Name:    "log-level",
						Usage:   "Log level (debug, info, warn, error)",
						Value:   "info",
						Sources: cli.EnvVars("LOG_LEVEL"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return activate(ctx, command)
				},
			},
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
