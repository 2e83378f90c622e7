package models

// Well-known edge condition tags. Switch output keys and button IDs are also
// used as condition tags on their nodes' outgoing edges.
const (
	EdgeConditionTrue     = "true"
	EdgeConditionFalse    = "false"
	EdgeConditionLoop     = "loop"
	EdgeConditionDone     = "done"
	EdgeConditionDefault  = "default"
	EdgeConditionApproved = "approved"
	EdgeConditionRejected = "rejected"
)

// Edge connects two nodes in a workflow graph. Condition tags the edge for
// branching nodes; an empty condition marks the plain "next" edge. Label is
// editor metadata only.
type Edge struct {
	ID           string `json:"id"             validate:"required"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	Condition    string `json:"condition,omitempty"`
	Label        string `json:"label,omitempty"`
}
