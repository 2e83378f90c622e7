package models

import "time"

// Status is the state-machine state of an execution.
type Status string

const (
	StatusRunning   Status = "running"   // actively advancing through the graph
	StatusWaiting   Status = "waiting"   // suspended on a timer or an expected reply
	StatusCompleted Status = "completed" // reached a terminal node
	StatusError     Status = "error"     // unrecoverable failure
	StatusExpired   Status = "expired"   // wait or execution exceeded its deadline
)

// IsActive reports whether the execution still owns its (tenant, session,
// contact) slot.
func (s Status) IsActive() bool {
	return s == StatusRunning || s == StatusWaiting
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusExpired
}

// Execution is one durable run of a workflow against one contact. At most one
// active execution may exist per (tenant, session, contact); the engine
// enforces this, the store only indexes it.
type Execution struct {
	ID               string           `json:"id"`
	TenantID         string           `json:"tenant_id"`
	WorkflowID       string           `json:"workflow_id"`
	SessionID        string           `json:"session_id"`
	ContactID        string           `json:"contact_id"` // opaque identifier, no format assumed
	CurrentNodeID    *string          `json:"current_node_id,omitempty"`
	Status           Status           `json:"status"`
	Context          ExecutionContext `json:"context"`
	InteractionCount int              `json:"interaction_count"`
	StartedAt        time.Time        `json:"started_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// LockKey returns the mutual-exclusion key guarding this execution's
// conversation.
func (e *Execution) LockKey() string {
	return ConversationKey(e.TenantID, e.SessionID, e.ContactID)
}

// ConversationKey builds the per-conversation lock key.
func ConversationKey(tenantID, sessionID, contactID string) string {
	return "exec:" + tenantID + ":" + sessionID + ":" + contactID
}
