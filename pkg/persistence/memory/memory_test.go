package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/persistence"
)

func TestPersistence_WorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	wf := &models.Workflow{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "greeting flow",
		Status:   models.WorkflowStatusActive,
		Nodes:    []*models.Node{{ID: "end", Type: models.NodeTypeEnd}},
	}

	require.NoError(t, store.SaveWorkflow(ctx, wf))

	got, err := store.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "greeting flow", got.Name)
	require.Len(t, got.Nodes, 1)

	// Mutating the returned copy must not affect the stored workflow.
	got.Name = "mutated"
	again, err := store.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "greeting flow", again.Name)
}

func TestPersistence_WorkflowNotFound(t *testing.T) {
	store := NewPersistence()

	_, err := store.WorkflowByID(context.Background(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_ActiveWorkflowsFiltersTenantAndStatus(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-1", TenantID: "tenant-1", Status: models.WorkflowStatusActive,
	}))
	require.NoError(t, store.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-2", TenantID: "tenant-1", Status: models.WorkflowStatusDraft,
	}))
	require.NoError(t, store.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-3", TenantID: "tenant-2", Status: models.WorkflowStatusActive,
	}))

	active, err := store.ActiveWorkflows(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "wf-1", active[0].ID)
}

func TestPersistence_FindActiveExecution(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.SaveExecution(ctx, &models.Execution{
		ID: "ex-1", TenantID: "t1", SessionID: "s1", ContactID: "c1",
		Status: models.StatusCompleted,
	}))
	require.NoError(t, store.SaveExecution(ctx, &models.Execution{
		ID: "ex-2", TenantID: "t1", SessionID: "s1", ContactID: "c1",
		Status: models.StatusWaiting,
	}))

	found, err := store.FindActiveExecution(ctx, "t1", "s1", "c1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ex-2", found.ID)

	none, err := store.FindActiveExecution(ctx, "t1", "s1", "other")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPersistence_ExecutionsByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.SaveExecution(ctx, &models.Execution{ID: "ex-1", Status: models.StatusRunning}))
	require.NoError(t, store.SaveExecution(ctx, &models.Execution{ID: "ex-2", Status: models.StatusWaiting}))
	require.NoError(t, store.SaveExecution(ctx, &models.Execution{ID: "ex-3", Status: models.StatusError}))

	pending, err := store.ExecutionsByStatus(ctx, models.StatusRunning, models.StatusWaiting)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestPersistence_ExecutionContextSurvivesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	execution := &models.Execution{
		ID:     "ex-1",
		Status: models.StatusWaiting,
	}
	execution.Context = models.NewExecutionContext()
	execution.Context.SetVariable("name", "Ana")
	execution.Context.Loop = &models.LoopFrame{
		NodeID: "loop-1", Items: []any{"a", "b"}, Index: 1,
		ItemVariable: "item", IndexVariable: "index",
	}

	require.NoError(t, store.SaveExecution(ctx, execution))

	got, err := store.ExecutionByID(ctx, "ex-1")
	require.NoError(t, err)
	require.NotNil(t, got.Context.Loop)
	assert.Equal(t, 1, got.Context.Loop.Index)
	assert.Equal(t, "Ana", got.Context.Variables["name"])
}
