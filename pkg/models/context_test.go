package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionContext_LoopFrameRoundTrip(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.SetVariable("name", "Ana")
	ctx.Input = map[string]any{"text": "hi"}
	ctx.Loop = &LoopFrame{
		NodeID:        "loop-1",
		Items:         []any{"a", "b", "c"},
		Index:         1,
		ItemVariable:  "item",
		IndexVariable: "index",
		Iterations:    2,
	}

	blob, err := json.Marshal(ctx)
	require.NoError(t, err)

	// The persisted form is one flat object with reserved keys.
	var flat struct {
		Variables map[string]any `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(blob, &flat))
	assert.Equal(t, "loop-1", flat.Variables["_loopNodeId"])
	assert.EqualValues(t, 1, flat.Variables["_loopCurrentIndex"])

	var restored ExecutionContext
	require.NoError(t, json.Unmarshal(blob, &restored))

	require.NotNil(t, restored.Loop)
	assert.Equal(t, "loop-1", restored.Loop.NodeID)
	assert.Equal(t, 1, restored.Loop.Index)
	assert.Equal(t, 2, restored.Loop.Iterations)
	assert.Equal(t, []any{"a", "b", "c"}, restored.Loop.Items)

	// Reserved keys must not leak back into the variable bag.
	_, leaked := restored.Variables["_loopNodeId"]
	assert.False(t, leaked)
	assert.Equal(t, "Ana", restored.Variables["name"])
}

func TestExecutionContext_PublicVariablesHidesReservedKeys(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.SetVariable("name", "Ana")
	ctx.SetWaitResumeAt(time.Now().Add(time.Minute))
	ctx.SetButtonMap(map[string]string{"yes": "Yes"})

	public := ctx.PublicVariables()

	assert.Equal(t, map[string]any{"name": "Ana"}, public)
}

func TestExecutionContext_WaitResumeAtRoundTrip(t *testing.T) {
	deadline := time.Now().Add(30 * time.Second).UTC().Truncate(time.Millisecond)

	ctx := NewExecutionContext()
	ctx.SetWaitResumeAt(deadline)

	blob, err := json.Marshal(ctx)
	require.NoError(t, err)

	var restored ExecutionContext
	require.NoError(t, json.Unmarshal(blob, &restored))

	got, ok := restored.WaitResumeAt()
	require.True(t, ok)
	assert.True(t, got.Equal(deadline))

	restored.ClearWait()
	_, ok = restored.WaitResumeAt()
	assert.False(t, ok)
}

func TestExecutionContext_ButtonMapSurvivesSerialization(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.SetButtonMap(map[string]string{"opt_a": "Option A", "opt_b": "Option B"})

	blob, err := json.Marshal(ctx)
	require.NoError(t, err)

	var restored ExecutionContext
	require.NoError(t, json.Unmarshal(blob, &restored))

	assert.Equal(t, map[string]string{"opt_a": "Option A", "opt_b": "Option B"}, restored.ButtonMap())
}
