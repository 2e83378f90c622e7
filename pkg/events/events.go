// Package events defines the typed lifecycle events emitted by the execution
// engine and consumed by UI and log collaborators.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topics.
const (
	ExecutionTopic = "zapflow.executions"       // execution lifecycle events
	InboundTopic   = "zapflow.messages.inbound" // inbound chat messages
)

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	NodeExecutedEvent       EventType = "execution.node_executed"
	ExecutionWaitingEvent   EventType = "execution.waiting"
	ExecutionResumedEvent   EventType = "execution.resumed"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionExpiredEvent   EventType = "execution.expired"

	MessageReceivedEvent EventType = "message.received"
)

// BaseEvent carries the identifiers shared by all execution events.
type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	TenantID    string         `json:"tenant_id"`
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id"`
	SessionID   string         `json:"session_id"`
	ContactID   string         `json:"contact_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	TriggerNodeID string         `json:"trigger_node_id"`
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type NodeExecuted struct {
	BaseEvent

	NodeID     string         `json:"node_id"`
	NodeType   string         `json:"node_type"`
	DurationMs int64          `json:"duration_ms"`
	Output     any            `json:"output,omitempty"`
	Variables  map[string]any `json:"variables,omitempty"`
}

func (e NodeExecuted) GetType() EventType {
	return NodeExecutedEvent
}

type ExecutionWaiting struct {
	BaseEvent

	NodeID   string     `json:"node_id"`
	ResumeAt *time.Time `json:"resume_at,omitempty"` // set for timer waits and reply timeouts
}

func (e ExecutionWaiting) GetType() EventType {
	return ExecutionWaitingEvent
}

type ExecutionResumed struct {
	BaseEvent

	NodeID string `json:"node_id"`
	Input  any    `json:"input,omitempty"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Output        any   `json:"output,omitempty"`
	DurationMs    int64 `json:"duration_ms"`
	NodesExecuted int   `json:"nodes_executed"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	Error    string `json:"error"`
	NodeID   string `json:"node_id,omitempty"`
	NodeType string `json:"node_type,omitempty"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionExpired struct {
	BaseEvent

	NodeID string `json:"node_id,omitempty"`
}

func (e ExecutionExpired) GetType() EventType {
	return ExecutionExpiredEvent
}

// MessageReceived is published by the chat-protocol collaborator for every
// inbound message; the engine consumes it to start or resume executions.
type MessageReceived struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenant_id"`
	SessionID string         `json:"session_id"`
	ContactID string         `json:"contact_id"`
	Text      string         `json:"text"`
	MediaType string         `json:"media_type,omitempty"`
	MediaURL  string         `json:"media_url,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func (e MessageReceived) GetType() EventType {
	return MessageReceivedEvent
}

func NewBaseEvent(eventType EventType, tenantID, workflowID, executionID, sessionID, contactID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		TenantID:    tenantID,
		WorkflowID:  workflowID,
		ExecutionID: executionID,
		SessionID:   sessionID,
		ContactID:   contactID,
		Metadata:    make(map[string]any),
	}
}
