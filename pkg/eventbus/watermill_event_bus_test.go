package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflow/zapflow/pkg/channels/gochannel"
	"github.com/zapflow/zapflow/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pubSub := gochannel.NewTestChannel(watermill.NewSlogLogger(slog.Default()))
	bus := NewWatermillEventBus(pubSub, pubSub)
	t.Cleanup(func() {
		require.NoError(t, bus.Close())
	})

	return bus
}

func TestWatermillEventBus_DeliversInboundMessages(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	var (
		mu       sync.Mutex
		received []*events.MessageReceived
	)

	require.NoError(t, bus.Handle(events.MessageReceivedEvent, func(_ context.Context, event any) error {
		msg, ok := event.(*events.MessageReceived)
		if !ok {
			return errors.New("unexpected payload type")
		}

		mu.Lock()
		received = append(received, msg)
		mu.Unlock()

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	err := bus.Publish(ctx, "tenant-1/contact-1", events.MessageReceived{
		ID:        bus.GenerateID(),
		TenantID:  "tenant-1",
		SessionID: "session-1",
		ContactID: "contact-1",
		Text:      "hi",
	})
	require.NoError(t, err)

	// The test channel blocks Publish until the subscriber acks, so the
	// handler has run by now.
	mu.Lock()
	defer mu.Unlock()

	require.Len(t, received, 1)
	assert.Equal(t, "tenant-1", received[0].TenantID)
	assert.Equal(t, "hi", received[0].Text)
}

func TestWatermillEventBus_UnhandledEventIsAcked(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for this type; the bus must ack and move on
	// rather than wedge the subscription.
	err := bus.Publish(ctx, "exec-1", events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent,
			"tenant-1", "wf-1", "exec-1", "session-1", "contact-1"),
		TriggerNodeID: "trigger",
	})
	assert.NoError(t, err)
}
