package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflow/zapflow/pkg/models"
)

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "greeting flow",
		Status:   models.WorkflowStatusActive,
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTriggerMessage, Config: json.RawMessage(`{"match": "exact", "keywords": ["hi"]}`)},
			{ID: "hello", Type: models.NodeTypeSendMessage, Config: json.RawMessage(`{"text": "hello"}`)},
			{ID: "end", Type: models.NodeTypeEnd},
		},
		Edges: []*models.Edge{
			{ID: "e1", SourceNodeID: "trigger", TargetNodeID: "hello"},
			{ID: "e2", SourceNodeID: "hello", TargetNodeID: "end"},
		},
	}
}

func newValidator(t *testing.T) *Validator {
	t.Helper()

	v, err := NewValidator()
	require.NoError(t, err)

	return v
}

func TestValidateForActivation_ValidWorkflow(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.ValidateForActivation(validWorkflow()))
}

func TestValidateForActivation_DanglingEdge(t *testing.T) {
	v := newValidator(t)

	wf := validWorkflow()
	wf.Edges = append(wf.Edges, &models.Edge{ID: "e3", SourceNodeID: "hello", TargetNodeID: "ghost"})

	err := v.ValidateForActivation(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing target node ghost")
}

func TestValidateForActivation_MissingEndNode(t *testing.T) {
	v := newValidator(t)

	wf := validWorkflow()
	wf.Nodes = wf.Nodes[:2]
	wf.Edges = wf.Edges[:1]

	err := v.ValidateForActivation(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one end node")
}

func TestValidateForActivation_SwitchRequiresDefaultEdge(t *testing.T) {
	v := newValidator(t)

	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &models.Node{
		ID:   "switch",
		Type: models.NodeTypeSwitch,
		Config: json.RawMessage(`{"rules": [
			{"value1": "{{variables.plan}}", "operator": "equals", "value2": "vip", "output": "vip"}
		]}`),
	})
	wf.Edges = append(wf.Edges, &models.Edge{
		ID: "e3", SourceNodeID: "switch", TargetNodeID: "end", Condition: "vip",
	})

	err := v.ValidateForActivation(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a default edge")

	wf.Edges = append(wf.Edges, &models.Edge{
		ID: "e4", SourceNodeID: "switch", TargetNodeID: "end", Condition: models.EdgeConditionDefault,
	})
	assert.NoError(t, v.ValidateForActivation(wf))
}

func TestValidateForActivation_LoopRequiresLoopEdge(t *testing.T) {
	v := newValidator(t)

	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &models.Node{
		ID:     "loop",
		Type:   models.NodeTypeLoop,
		Config: json.RawMessage(`{"items": "{{variables.products}}"}`),
	})

	err := v.ValidateForActivation(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a loop edge")
}

func TestValidateForActivation_UnknownNodeType(t *testing.T) {
	v := newValidator(t)

	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &models.Node{ID: "mystery", Type: "teleport"})

	err := v.ValidateForActivation(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "teleport"`)
}

func TestValidateForActivation_ConfigSchemaViolation(t *testing.T) {
	v := newValidator(t)

	wf := validWorkflow()
	wf.Nodes[1].Config = json.RawMessage(`{"delay_seconds": 2}`) // text missing

	err := v.ValidateForActivation(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node hello config")
}

func TestValidateForActivation_DuplicateNodeID(t *testing.T) {
	v := newValidator(t)

	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &models.Node{ID: "end", Type: models.NodeTypeEnd})

	err := v.ValidateForActivation(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}
