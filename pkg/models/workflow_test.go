package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestWorkflow() *Workflow {
	return &Workflow{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "greeting flow",
		Status:   WorkflowStatusActive,
		Nodes: []*Node{
			{ID: "trigger", Type: NodeTypeTriggerMessage},
			{ID: "hello", Type: NodeTypeSendMessage},
			{ID: "branch", Type: NodeTypeCondition},
			{ID: "end", Type: NodeTypeEnd},
		},
		Edges: []*Edge{
			{ID: "e1", SourceNodeID: "trigger", TargetNodeID: "hello"},
			{ID: "e2", SourceNodeID: "hello", TargetNodeID: "branch"},
			{ID: "e3", SourceNodeID: "branch", TargetNodeID: "end", Condition: EdgeConditionTrue},
			{ID: "e4", SourceNodeID: "branch", TargetNodeID: "hello", Condition: EdgeConditionFalse},
		},
	}
}

func TestWorkflow_NodeByID(t *testing.T) {
	wf := buildTestWorkflow()

	require.NotNil(t, wf.NodeByID("branch"))
	assert.Equal(t, NodeTypeCondition, wf.NodeByID("branch").Type)
	assert.Nil(t, wf.NodeByID("missing"))
}

func TestWorkflow_TriggerNodes(t *testing.T) {
	wf := buildTestWorkflow()

	triggers := wf.TriggerNodes()
	require.Len(t, triggers, 1)
	assert.Equal(t, "trigger", triggers[0].ID)
}

func TestWorkflow_EdgeFrom(t *testing.T) {
	wf := buildTestWorkflow()

	edge := wf.EdgeFrom("branch", EdgeConditionTrue)
	require.NotNil(t, edge)
	assert.Equal(t, "end", edge.TargetNodeID)

	assert.Nil(t, wf.EdgeFrom("branch", ""), "branch has no plain edge")
}

func TestWorkflow_NextNodeID(t *testing.T) {
	wf := buildTestWorkflow()

	next := wf.NextNodeID("hello")
	require.NotNil(t, next)
	assert.Equal(t, "branch", *next)

	assert.Nil(t, wf.NextNodeID("end"), "terminal node is a dead end")
}

func TestNode_DecodeConfig(t *testing.T) {
	node := &Node{
		ID:     "msg",
		Type:   NodeTypeSendMessage,
		Config: json.RawMessage(`{"text": "hi {{variables.name}}", "delay_seconds": 2}`),
	}

	var cfg SendMessageConfig
	require.NoError(t, node.DecodeConfig(&cfg))
	assert.Equal(t, "hi {{variables.name}}", cfg.Text)
	assert.Equal(t, 2, cfg.DelaySeconds)
}

func TestNode_DecodeConfig_Invalid(t *testing.T) {
	node := &Node{
		ID:     "msg",
		Type:   NodeTypeSendMessage,
		Config: json.RawMessage(`{"text": 42`),
	}

	var cfg SendMessageConfig
	assert.Error(t, node.DecodeConfig(&cfg))
}

func TestNodeType_IsTrigger(t *testing.T) {
	assert.True(t, NodeTypeTriggerMessage.IsTrigger())
	assert.True(t, NodeTypeTriggerSchedule.IsTrigger())
	assert.False(t, NodeTypeSendMessage.IsTrigger())
	assert.False(t, NodeTypeEnd.IsTrigger())
}
