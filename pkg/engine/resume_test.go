package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/persistence/memory"
)

func buttonsWorkflow(t *testing.T, store *memory.Persistence) *models.Workflow {
	t.Helper()

	return saveWorkflow(t, store,
		[]*models.Node{
			node("trigger", models.NodeTypeTriggerMessage, `{"match": "exact", "keywords": ["menu"]}`),
			node("choose", models.NodeTypeSendButtons, `{
				"text": "pick one",
				"buttons": [{"id": "pizza", "label": "Pizza"}, {"id": "sushi", "label": "Sushi"}],
				"save_as": "dish"
			}`),
			node("pizza", models.NodeTypeSendMessage, `{"text": "pizza it is"}`),
			node("sushi", models.NodeTypeSendMessage, `{"text": "sushi it is"}`),
			node("end", models.NodeTypeEnd, `{"output_variables": ["dish"]}`),
		},
		[]*models.Edge{
			edge("trigger", "choose", ""),
			edge("choose", "pizza", "pizza"),
			edge("choose", "sushi", "sushi"),
			edge("pizza", "end", ""),
			edge("sushi", "end", ""),
		})
}

func TestEngine_ButtonReplyByPayload(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	buttonsWorkflow(t, rig.store)

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "menu"})
	require.NoError(t, err)
	require.Equal(t, models.StatusWaiting, execution.Status)
	assert.Equal(t, []string{"pick one"}, rig.gateway.texts())

	execution, err = rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1",
		&Inbound{Payload: map[string]any{"button_id": "sushi"}})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, execution.Status)
	assert.Equal(t, []string{"pick one", "sushi it is"}, rig.gateway.texts())
	assert.Equal(t, map[string]any{"dish": "sushi"}, execution.Context.Output)
}

func TestEngine_ButtonReplyByLabelText(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	buttonsWorkflow(t, rig.store)

	_, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "menu"})
	require.NoError(t, err)

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "  PIZZA "})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, execution.Status)
	assert.Equal(t, []string{"pick one", "pizza it is"}, rig.gateway.texts())
}

func TestEngine_ButtonNoMatchKeepsWaiting(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	buttonsWorkflow(t, rig.store)

	_, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "menu"})
	require.NoError(t, err)

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "burger"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusWaiting, execution.Status)
	require.NotNil(t, execution.CurrentNodeID)
	assert.Equal(t, "choose", *execution.CurrentNodeID)
	assert.Equal(t, 1, rig.engine.Timers().Pending(), "the timeout timer must stay armed")

	// The wait is still consumable afterwards.
	execution, err = rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "Sushi"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, execution.Status)
}

func TestEngine_ReplyRoutes(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	saveWorkflow(t, rig.store,
		[]*models.Node{
			node("trigger", models.NodeTypeTriggerMessage, `{"match": "exact", "keywords": ["start"]}`),
			node("confirm", models.NodeTypeWaitReply, `{"save_as": "answer", "routes": [
				{"condition": "yes", "keywords": ["yes", "sure"]},
				{"condition": "no", "keywords": ["no"]}
			]}`),
			node("yes", models.NodeTypeSendMessage, `{"text": "confirmed"}`),
			node("no", models.NodeTypeSendMessage, `{"text": "another time"}`),
			node("end", models.NodeTypeEnd, ""),
		},
		[]*models.Edge{
			edge("trigger", "confirm", ""),
			edge("confirm", "yes", "yes"),
			edge("confirm", "no", "no"),
			edge("yes", "end", ""),
			edge("no", "end", ""),
		})

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "start"})
	require.NoError(t, err)
	require.Equal(t, models.StatusWaiting, execution.Status)

	execution, err = rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "Sure!"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, execution.Status)
	assert.Equal(t, []string{"confirmed"}, rig.gateway.texts())

	saved, _ := execution.Context.Variable("answer")
	assert.Equal(t, "Sure!", saved)
}

func paymentWorkflow(t *testing.T, store *memory.Persistence) *models.Workflow {
	t.Helper()

	return saveWorkflow(t, store,
		[]*models.Node{
			node("trigger", models.NodeTypeTriggerMessage, `{"match": "exact", "keywords": ["buy"]}`),
			node("pay", models.NodeTypeConfirmPayment, `{
				"text": "send the receipt",
				"save_as": "receipt",
				"keywords": ["paid"],
				"reject_keywords": ["cancel"]
			}`),
			node("ok", models.NodeTypeSendMessage, `{"text": "payment received"}`),
			node("nope", models.NodeTypeSendMessage, `{"text": "order cancelled"}`),
			node("end", models.NodeTypeEnd, ""),
		},
		[]*models.Edge{
			edge("trigger", "pay", ""),
			edge("pay", "ok", "approved"),
			edge("pay", "nope", "rejected"),
			edge("ok", "end", ""),
			edge("nope", "end", ""),
		})
}

func TestEngine_PaymentReceiptMedia(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	paymentWorkflow(t, rig.store)

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "buy"})
	require.NoError(t, err)
	require.Equal(t, models.StatusWaiting, execution.Status)
	assert.Equal(t, []string{"send the receipt"}, rig.gateway.texts())

	execution, err = rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1",
		&Inbound{MediaType: "image", MediaURL: "https://cdn.example/receipt.jpg"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, execution.Status)
	assert.Equal(t, []string{"send the receipt", "payment received"}, rig.gateway.texts())

	saved, _ := execution.Context.Variable("receipt")
	assert.Equal(t, "https://cdn.example/receipt.jpg", saved)
}

func TestEngine_PaymentRejectKeyword(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	paymentWorkflow(t, rig.store)

	_, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "buy"})
	require.NoError(t, err)

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "cancel"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, execution.Status)
	assert.Equal(t, []string{"send the receipt", "order cancelled"}, rig.gateway.texts())
}

func TestEngine_PaymentUnrelatedMessageKeepsWaiting(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	paymentWorkflow(t, rig.store)

	_, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "buy"})
	require.NoError(t, err)

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "how much was it?"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusWaiting, execution.Status)
	require.NotNil(t, execution.CurrentNodeID)
	assert.Equal(t, "pay", *execution.CurrentNodeID)
}

func TestEngine_WaitNodeResumesFromTimer(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	saveWorkflow(t, rig.store,
		[]*models.Node{
			node("trigger", models.NodeTypeTriggerMessage, `{"match": "exact", "keywords": ["remind me"]}`),
			node("pause", models.NodeTypeWait, `{"duration_seconds": 3600}`),
			node("nudge", models.NodeTypeSendMessage, `{"text": "still there?"}`),
			node("end", models.NodeTypeEnd, ""),
		},
		[]*models.Edge{
			edge("trigger", "pause", ""),
			edge("pause", "nudge", ""),
			edge("nudge", "end", ""),
		})

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "remind me"})
	require.NoError(t, err)

	require.Equal(t, models.StatusWaiting, execution.Status)
	require.NotNil(t, execution.CurrentNodeID)
	assert.Equal(t, "nudge", *execution.CurrentNodeID, "pure timer wait points past the wait node")

	resumeAt, ok := execution.Context.WaitResumeAt()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resumeAt, time.Minute)

	// Fire the timer path directly instead of sleeping an hour.
	require.NoError(t, rig.engine.ResumeFromTimer(ctx, execution.ID))

	final, err := rig.store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.Equal(t, []string{"still there?"}, rig.gateway.texts())
}

func TestEngine_LoopBodyEndingInWaitResumesLoop(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	// The wait is the body's last node, so each suspension parks the
	// execution with no current node while the loop frame stays active.
	saveWorkflow(t, rig.store,
		[]*models.Node{
			node("trigger", models.NodeTypeTriggerMessage, `{"match": "any"}`),
			node("seed", models.NodeTypeSetVariable, `{"assignments": [{"name": "items", "value": "[1, 2]"}]}`),
			node("each", models.NodeTypeLoop, `{"items": "{{variables.items}}"}`),
			node("show", models.NodeTypeSendMessage, `{"text": "item {{variables.item}}"}`),
			node("pause", models.NodeTypeWait, `{"duration_seconds": 60}`),
			node("end", models.NodeTypeEnd, ""),
		},
		[]*models.Edge{
			edge("trigger", "seed", ""),
			edge("seed", "each", ""),
			edge("each", "show", "loop"),
			edge("each", "end", "done"),
			edge("show", "pause", ""),
		})

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "go"})
	require.NoError(t, err)

	require.Equal(t, models.StatusWaiting, execution.Status)
	assert.Nil(t, execution.CurrentNodeID)
	require.NotNil(t, execution.Context.Loop, "the loop frame must survive the suspension")
	assert.Equal(t, []string{"item 1"}, rig.gateway.texts())

	require.NoError(t, rig.engine.ResumeFromTimer(ctx, execution.ID))

	execution, err = rig.store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusWaiting, execution.Status, "the second item suspends again")
	assert.Equal(t, []string{"item 1", "item 2"}, rig.gateway.texts())

	require.NoError(t, rig.engine.ResumeFromTimer(ctx, execution.ID))

	final, err := rig.store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.Equal(t, []string{"item 1", "item 2"}, rig.gateway.texts())
	assert.Nil(t, final.Context.Loop)

	for name := range final.Context.Variables {
		assert.False(t, models.IsReservedKey(name), "loop bookkeeping %s must be cleared", name)
	}

	_, ok := final.Context.Variable("item")
	assert.False(t, ok, "item variable must be unbound after the loop")
}

func TestEngine_ReplyTimeoutGotoNode(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	saveWorkflow(t, rig.store,
		[]*models.Node{
			node("trigger", models.NodeTypeTriggerMessage, `{"match": "exact", "keywords": ["hi"]}`),
			node("ask", models.NodeTypeWaitReply, `{"save_as": "name", "timeout_seconds": 60, "on_timeout": "goto_node", "timeout_node_id": "nudge"}`),
			node("nudge", models.NodeTypeSendMessage, `{"text": "are you there?"}`),
			node("end", models.NodeTypeEnd, ""),
		},
		[]*models.Edge{
			edge("trigger", "ask", ""),
			edge("ask", "end", ""),
			edge("nudge", "end", ""),
		})

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, models.StatusWaiting, execution.Status)

	require.NoError(t, rig.engine.ResumeFromTimer(ctx, execution.ID))

	final, err := rig.store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.Equal(t, []string{"are you there?"}, rig.gateway.texts())
}

func TestEngine_ReplyTimeoutEndsExpired(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	greetingWorkflow(t, rig.store)

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, models.StatusWaiting, execution.Status)

	require.NoError(t, rig.engine.ResumeFromTimer(ctx, execution.ID))

	final, err := rig.store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, final.Status)
	assert.Equal(t, []string{"hello"}, rig.gateway.texts(), "no further sends after expiry")
}

func TestEngine_ResumeNonWaitingFails(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	saveWorkflow(t, rig.store,
		[]*models.Node{
			node("trigger", models.NodeTypeTriggerMessage, `{"match": "exact", "keywords": ["hi"]}`),
			node("hello", models.NodeTypeSendMessage, `{"text": "hello"}`),
			node("end", models.NodeTypeEnd, ""),
		},
		[]*models.Edge{
			edge("trigger", "hello", ""),
			edge("hello", "end", ""),
		})

	execution, err := rig.engine.HandleInbound(ctx, "tenant-1", "session-1", "contact-1", &Inbound{Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, execution.Status)

	_, err = rig.engine.Resume(ctx, execution.ID, &Inbound{Text: "late reply"})
	assert.ErrorIs(t, err, ErrNotWaiting)
}
