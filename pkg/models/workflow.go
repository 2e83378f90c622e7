package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Validated, executable
	WorkflowStatusArchived WorkflowStatus = "archived" // Historical, not executable
)

// Workflow is an immutable-per-version automation graph owned by one tenant.
type Workflow struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id" validate:"required"`
	Name        string         `json:"name"      validate:"required,min=3"`
	Description string         `json:"description"`
	Status      WorkflowStatus `json:"status"    validate:"required"`
	Nodes       []*Node        `json:"nodes"`
	Edges       []*Edge        `json:"edges"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NodeByID returns the node with the given ID, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// TriggerNodes returns all trigger nodes of the workflow.
func (w *Workflow) TriggerNodes() []*Node {
	var triggers []*Node

	for _, node := range w.Nodes {
		if node.Type.IsTrigger() {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// EdgesFrom returns all outgoing edges of the given node, in definition order.
func (w *Workflow) EdgesFrom(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range w.Edges {
		if edge.SourceNodeID == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// EdgeFrom returns the first outgoing edge of the node tagged with the given
// condition, or nil.
func (w *Workflow) EdgeFrom(nodeID, condition string) *Edge {
	for _, edge := range w.Edges {
		if edge.SourceNodeID == nodeID && edge.Condition == condition {
			return edge
		}
	}

	return nil
}

// NextNodeID returns the target of the node's plain (untagged) outgoing edge,
// or nil when the node is a dead end.
func (w *Workflow) NextNodeID(nodeID string) *string {
	edge := w.EdgeFrom(nodeID, "")
	if edge == nil {
		return nil
	}

	target := edge.TargetNodeID

	return &target
}
