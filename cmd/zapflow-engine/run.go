package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/zapflow/zapflow/pkg/cmd"
	"github.com/zapflow/zapflow/pkg/engine"
	"github.com/zapflow/zapflow/pkg/events"
	"github.com/zapflow/zapflow/pkg/gateway"
	"github.com/zapflow/zapflow/pkg/log"
	"github.com/zapflow/zapflow/pkg/otelhelper"
	"github.com/zapflow/zapflow/pkg/scheduler"
)

func run(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("zapflow-engine")

	logger.InfoContext(ctx, "Initializing ZapFlow engine worker")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if command.Bool("tracing") {
		_, err := otelhelper.NewTracer(ctx, "zapflow-engine")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
	}

	store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		err := store.Close(context.Background())
		if err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}()

	locks := cmd.NewLockManager(command.String("redis-url"))

	eventBus := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), logger)
	defer func() {
		err := eventBus.Close()
		if err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	eng := engine.NewEngine(
		logger,
		store,
		locks,
		gateway.NewLoggingGateway(logger),
		nil,
		eventBus,
		engine.DefaultConfig(),
	)
	defer eng.Timers().Stop()

	err := eng.RecoverExecutions(ctx)
	if err != nil {
		return fmt.Errorf("startup recovery failed: %w", err)
	}

	tenants := command.StringSlice("tenants")
	if len(tenants) > 0 {
		sched := scheduler.NewScheduler(logger, store, eng, tenants)
		defer sched.Stop()

		err = sched.Reload(ctx)
		if err != nil {
			return fmt.Errorf("failed to load schedule triggers: %w", err)
		}
	}

	err = eventBus.Handle(events.MessageReceivedEvent, func(ctx context.Context, event any) error {
		msg, ok := event.(*events.MessageReceived)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		execution, err := eng.HandleInbound(ctx, msg.TenantID, msg.SessionID, msg.ContactID, &engine.Inbound{
			Text:      msg.Text,
			MediaType: msg.MediaType,
			MediaURL:  msg.MediaURL,
			Payload:   msg.Payload,
		})
		if err != nil {
			logger.Error("Failed to handle inbound message",
				"tenant_id", msg.TenantID, "contact_id", msg.ContactID, "error", err)

			return nil // handled, do not redeliver
		}

		if execution != nil {
			logger.Debug("Inbound message handled",
				"execution_id", execution.ID, "status", execution.Status)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = eventBus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to inbound messages: %w", err)
	}

	logger.InfoContext(ctx, "Engine worker running")

	<-ctx.Done()

	logger.Info("Shutting down")

	return nil
}
