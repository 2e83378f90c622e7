package engine

import "errors"

var (
	// ErrNoTriggerNode is returned by Start when the workflow has no entry
	// point.
	ErrNoTriggerNode = errors.New("workflow has no trigger node")

	// ErrExecutionInProgress signals conversation contention: another run
	// loop holds the lock or an active execution already owns the
	// conversation. The engine never queues; the caller may retry.
	ErrExecutionInProgress = errors.New("an execution is already in progress for this conversation")

	// ErrWorkflowNotActive is returned when starting a workflow that is not
	// in the active status.
	ErrWorkflowNotActive = errors.New("workflow is not active")

	// ErrNotWaiting is returned when resuming an execution that is not
	// suspended.
	ErrNotWaiting = errors.New("execution is not waiting")

	// ErrIterationLimit marks a run loop that exceeded the per-invocation
	// iteration ceiling, the guard against malformed or cyclic graphs.
	ErrIterationLimit = errors.New("iteration limit exceeded")

	// ErrInteractionLimit marks an execution that consumed more inbound
	// interactions than the configured cap allows.
	ErrInteractionLimit = errors.New("interaction limit reached")

	// ErrUnknownNodeType is returned by the executor for a node type it has
	// no case for. Unknown types are fatal, never silently skipped.
	ErrUnknownNodeType = errors.New("unknown node type")
)
