// Package models defines the core domain models for conversational workflow automation.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeType identifies the kind of a workflow node. The executor dispatches on
// this value with an exhaustive switch; an unknown type is a fatal error.
type NodeType string

const (
	// Trigger node types. A trigger node is the entry point of a workflow and
	// is never executed by the run loop itself.
	NodeTypeTriggerMessage  NodeType = "trigger:message"
	NodeTypeTriggerSchedule NodeType = "trigger:schedule"
	NodeTypeTriggerManual   NodeType = "trigger:manual"

	// Action node types.
	NodeTypeSendMessage    NodeType = "send_message"
	NodeTypeSendMedia      NodeType = "send_media"
	NodeTypeSendButtons    NodeType = "send_buttons"
	NodeTypeSendList       NodeType = "send_list"
	NodeTypeCondition      NodeType = "condition"
	NodeTypeSwitch         NodeType = "switch"
	NodeTypeWait           NodeType = "wait"
	NodeTypeWaitReply      NodeType = "wait_reply"
	NodeTypeLoop           NodeType = "loop"
	NodeTypeSetVariable    NodeType = "set_variable"
	NodeTypeConfirmPayment NodeType = "confirm_payment"
	NodeTypeEnd            NodeType = "end"
)

// IsTrigger reports whether the node type is a workflow entry point.
func (t NodeType) IsTrigger() bool {
	return strings.HasPrefix(string(t), "trigger:")
}

// Node represents a single node instance in a workflow graph. Config holds the
// raw type-specific configuration and is decoded into one of the typed config
// structs by the executor. Position is editor metadata and plays no role in
// execution.
type Node struct {
	ID        string          `json:"id"         validate:"required"`
	Type      NodeType        `json:"type"       validate:"required"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config,omitempty"`
	PositionX int             `json:"position_x"`
	PositionY int             `json:"position_y"`
}

// DecodeConfig unmarshals the node's raw configuration into the given typed
// config struct.
func (n *Node) DecodeConfig(v any) error {
	if len(n.Config) == 0 {
		return nil
	}

	err := json.Unmarshal(n.Config, v)
	if err != nil {
		return fmt.Errorf("invalid %s config for node %s: %w", n.Type, n.ID, err)
	}

	return nil
}
