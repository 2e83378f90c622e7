// Package engine implements the durable workflow execution state machine: it
// advances one conversation through a workflow graph, suspends on
// asynchronous waits, survives process restarts, and serializes concurrent
// triggers for the same contact behind a per-conversation lock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zapflow/zapflow/pkg/eventbus"
	"github.com/zapflow/zapflow/pkg/events"
	"github.com/zapflow/zapflow/pkg/expression"
	"github.com/zapflow/zapflow/pkg/gateway"
	"github.com/zapflow/zapflow/pkg/lock"
	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/otelhelper"
	"github.com/zapflow/zapflow/pkg/persistence"
	"github.com/zapflow/zapflow/pkg/tags"
)

// Engine owns the run loop and the in-process timer registry. One engine
// instance serves many conversations; ordering per conversation comes from
// the lock manager, not from the engine itself.
type Engine struct {
	store     persistence.Persistence
	locks     lock.Manager
	gateway   gateway.Gateway
	tags      tags.Provider
	publisher eventbus.EventPublisher
	evaluator *expression.Evaluator
	timers    *TimerRegistry
	tracer    trace.Tracer
	logger    *slog.Logger
	config    Config
}

// NewEngine wires an engine from its collaborators. Pass tags.NoopProvider
// when no tag source is configured and a zero Config for the defaults.
func NewEngine(
	logger *slog.Logger,
	store persistence.Persistence,
	locks lock.Manager,
	gw gateway.Gateway,
	tagProvider tags.Provider,
	publisher eventbus.EventPublisher,
	config Config,
) *Engine {
	if tagProvider == nil {
		tagProvider = tags.NoopProvider{}
	}

	return &Engine{
		store:     store,
		locks:     locks,
		gateway:   gw,
		tags:      tagProvider,
		publisher: publisher,
		evaluator: expression.NewEvaluator(),
		timers:    NewTimerRegistry(),
		tracer:    otel.Tracer("zapflow.engine"),
		logger:    logger.With("module", "engine"),
		config:    config.withDefaults(),
	}
}

// Timers exposes the registry so the process shutdown path can stop it.
func (e *Engine) Timers() *TimerRegistry {
	return e.timers
}

// Start creates and runs a new execution of the workflow for the given
// conversation. triggerNodeID selects the trigger node to enter from; empty
// means the workflow's first trigger (manual/API starts). An active
// execution for the same conversation blocks the start unless it has gone
// stale, in which case it is force-failed first.
func (e *Engine) Start(ctx context.Context, tenantID, workflowID, sessionID, contactID, triggerNodeID string, in *Inbound) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.start",
		attribute.String(otelhelper.TenantIDKey, tenantID),
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.SessionIDKey, sessionID),
		attribute.String(otelhelper.ContactIDKey, contactID),
	)
	defer span.End()

	key := models.ConversationKey(tenantID, sessionID, contactID)

	acquired, err := e.locks.Acquire(ctx, key, e.config.LockLease)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to acquire conversation lock: %w", err)
	}

	if !acquired {
		return nil, ErrExecutionInProgress
	}
	defer e.releaseLock(ctx, key)

	err = e.clearActiveExecution(ctx, tenantID, sessionID, contactID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	wf, err := e.loadWorkflow(ctx, tenantID, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	triggers := wf.TriggerNodes()
	if len(triggers) == 0 {
		return nil, ErrNoTriggerNode
	}

	trigger := triggers[0]
	if triggerNodeID != "" {
		trigger = nil

		for _, candidate := range triggers {
			if candidate.ID == triggerNodeID {
				trigger = candidate

				break
			}
		}

		if trigger == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoTriggerNode, triggerNodeID)
		}
	}

	span.SetAttributes(attribute.String(otelhelper.TriggerNodeKey, trigger.ID))

	return e.startFromTrigger(ctx, wf, trigger, sessionID, contactID, in)
}

// HandleInbound is the entry point for every message arriving from a
// contact: an active waiting execution is resumed, otherwise the message is
// matched against the tenant's message triggers and may start a workflow. A
// message matching nothing returns (nil, nil).
func (e *Engine) HandleInbound(ctx context.Context, tenantID, sessionID, contactID string, in *Inbound) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.handle_inbound",
		attribute.String(otelhelper.TenantIDKey, tenantID),
		attribute.String(otelhelper.SessionIDKey, sessionID),
		attribute.String(otelhelper.ContactIDKey, contactID),
	)
	defer span.End()

	key := models.ConversationKey(tenantID, sessionID, contactID)

	acquired, err := e.locks.Acquire(ctx, key, e.config.LockLease)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to acquire conversation lock: %w", err)
	}

	if !acquired {
		return nil, ErrExecutionInProgress
	}
	defer e.releaseLock(ctx, key)

	existing, err := e.store.FindActiveExecution(ctx, tenantID, sessionID, contactID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if existing != nil {
		if existing.Status == models.StatusWaiting {
			return e.resumeLocked(ctx, existing, in)
		}

		// A RUNNING row while we hold the lock is either a crash leftover or
		// an in-flight request that has not persisted yet.
		if !e.isStale(existing) {
			return nil, ErrExecutionInProgress
		}

		e.fail(ctx, existing, nil, errors.New("stale execution superseded"))
	}

	wf, trigger, err := e.matchTriggers(ctx, tenantID, in)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if trigger == nil {
		e.logger.Debug("Inbound message matched no trigger",
			"tenant_id", tenantID, "session_id", sessionID, "contact_id", contactID)

		return nil, nil
	}

	span.SetAttributes(attribute.String(otelhelper.TriggerNodeKey, trigger.ID))

	return e.startFromTrigger(ctx, wf, trigger, sessionID, contactID, in)
}

// Resume feeds an inbound reply to a waiting execution.
func (e *Engine) Resume(ctx context.Context, executionID string, in *Inbound) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.resume",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	execution, release, err := e.lockExecution(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}
	defer release()

	return e.resumeLocked(ctx, execution, in)
}

// ResumeFromTimer is the timer-fired entry point. A pure-timer wait resumes
// straight into the run loop; an attended wait applies its timeout policy.
// Lock contention means another entry point got there first and is not an
// error.
func (e *Engine) ResumeFromTimer(ctx context.Context, executionID string) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.resume_from_timer",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	execution, release, err := e.lockExecution(ctx, executionID)
	if err != nil {
		if errors.Is(err, ErrExecutionInProgress) {
			return nil
		}

		otelhelper.SetError(span, err)

		return err
	}
	defer release()

	if execution.Status != models.StatusWaiting {
		return nil
	}

	if e.isExpired(execution) {
		e.expire(ctx, execution)

		return nil
	}

	wf, err := e.loadWorkflow(ctx, execution.TenantID, execution.WorkflowID)
	if err != nil {
		e.fail(ctx, execution, nil, err)

		return nil
	}

	node := e.currentNode(wf, execution)

	if node != nil && isAttendedWait(node.Type) {
		e.applyTimeoutPolicy(ctx, wf, execution, node)

		return nil
	}

	// Pure timer: the pointer already sits past the wait.
	execution.Context.ClearWait()
	execution.Status = models.StatusRunning

	err = e.persist(ctx, execution)
	if err != nil {
		e.fail(ctx, execution, node, err)

		return nil
	}

	e.publish(ctx, execution.ID, events.ExecutionResumed{
		BaseEvent: e.baseEvent(events.ExecutionResumedEvent, execution),
		NodeID:    derefOr(execution.CurrentNodeID, ""),
	})

	e.runLoop(ctx, wf, execution)

	return nil
}

// CancelExecution force-fails an active execution with the given reason.
func (e *Engine) CancelExecution(ctx context.Context, executionID, reason string) (*models.Execution, error) {
	execution, release, err := e.lockExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if execution.Status.IsTerminal() {
		return execution, nil
	}

	e.fail(ctx, execution, nil, fmt.Errorf("cancelled: %s", reason))

	return execution, nil
}

// resumeLocked applies resume semantics with the conversation lock held.
func (e *Engine) resumeLocked(ctx context.Context, execution *models.Execution, in *Inbound) (*models.Execution, error) {
	if execution.Status != models.StatusWaiting {
		return nil, ErrNotWaiting
	}

	if in == nil {
		in = &Inbound{}
	}

	if e.isExpired(execution) {
		e.expire(ctx, execution)

		return execution, nil
	}

	execution.InteractionCount++
	if execution.InteractionCount > e.config.InteractionLimit {
		e.fail(ctx, execution, nil, ErrInteractionLimit)

		return execution, nil
	}

	// A reply always cancels the pending timeout timer; losing the race the
	// other way is handled by the timer path's lock acquisition.
	e.timers.Cancel(execution.ID)

	wf, err := e.loadWorkflow(ctx, execution.TenantID, execution.WorkflowID)
	if err != nil {
		e.fail(ctx, execution, nil, err)

		return execution, nil
	}

	node := e.currentNode(wf, execution)
	if node == nil {
		e.fail(ctx, execution, nil, errors.New("waiting execution has no current node"))

		return execution, nil
	}

	resolution, err := e.resolveReply(wf, node, &execution.Context, in)
	if err != nil {
		e.fail(ctx, execution, node, err)

		return execution, nil
	}

	if !resolution.matched {
		return e.keepWaiting(ctx, execution)
	}

	execution.Context.ClearWait()
	execution.Context.Input = in.Input()
	execution.Status = models.StatusRunning
	execution.CurrentNodeID = resolution.nextNodeID

	err = e.persist(ctx, execution)
	if err != nil {
		e.fail(ctx, execution, node, err)

		return execution, nil
	}

	e.publish(ctx, execution.ID, events.ExecutionResumed{
		BaseEvent: e.baseEvent(events.ExecutionResumedEvent, execution),
		NodeID:    node.ID,
		Input:     execution.Context.Input,
	})

	e.runLoop(ctx, wf, execution)

	return execution, nil
}

// keepWaiting persists interaction bookkeeping and re-arms the timeout timer
// after a reply that matched nothing. The wait is not consumed.
func (e *Engine) keepWaiting(ctx context.Context, execution *models.Execution) (*models.Execution, error) {
	if resumeAt, ok := execution.Context.WaitResumeAt(); ok {
		remaining := time.Until(resumeAt)
		if remaining < 0 {
			remaining = 0
		}

		e.scheduleResume(execution.ID, remaining)
	}

	err := e.persist(ctx, execution)
	if err != nil {
		e.fail(ctx, execution, nil, err)
	}

	return execution, nil
}

// startFromTrigger creates the execution row pointed just past the trigger
// and enters the run loop. Caller holds the conversation lock.
func (e *Engine) startFromTrigger(ctx context.Context, wf *models.Workflow, trigger *models.Node, sessionID, contactID string, in *Inbound) (*models.Execution, error) {
	if in == nil {
		in = &Inbound{}
	}

	execCtx := models.NewExecutionContext()
	execCtx.Input = in.Input()

	contactTags, err := e.tags.ContactTags(ctx, wf.TenantID, sessionID, contactID)
	if err != nil {
		e.logger.Warn("Failed to load contact tags", "contact_id", contactID, "error", err)
	}

	for name, value := range contactTags {
		if !models.IsReservedKey(name) {
			execCtx.SetVariable(name, value)
		}
	}

	now := time.Now().UTC()

	execution := &models.Execution{
		ID:            uuid.New().String(),
		TenantID:      wf.TenantID,
		WorkflowID:    wf.ID,
		SessionID:     sessionID,
		ContactID:     contactID,
		CurrentNodeID: wf.NextNodeID(trigger.ID),
		Status:        models.StatusRunning,
		Context:       execCtx,
		StartedAt:     now,
		UpdatedAt:     now,
	}

	if e.config.ExecutionTTL > 0 {
		expiresAt := now.Add(e.config.ExecutionTTL)
		execution.ExpiresAt = &expiresAt
	}

	err = e.persist(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	e.logger.Info("Started execution",
		"execution_id", execution.ID,
		"workflow_id", wf.ID,
		"tenant_id", wf.TenantID,
		"contact_id", contactID)

	e.publish(ctx, execution.ID, events.ExecutionStarted{
		BaseEvent:     e.baseEvent(events.ExecutionStartedEvent, execution),
		TriggerNodeID: trigger.ID,
		TriggerData:   in.Input(),
	})

	e.runLoop(ctx, wf, execution)

	return execution, nil
}

// runLoop advances the execution until it suspends or terminates. Every
// transition is persisted before the next node runs; any per-node error
// becomes a terminal ERROR, never a stuck RUNNING row.
func (e *Engine) runLoop(ctx context.Context, wf *models.Workflow, execution *models.Execution) {
	execCtx := &execution.Context
	iterations := 0

	for execution.Status == models.StatusRunning {
		if execution.CurrentNodeID == nil {
			// A dead end while the loop frame is active re-enters the loop
			// instead of completing. This covers bodies whose last node
			// advances to nil on the normal path as well as waits resumed
			// with no next node.
			if execCtx.Loop != nil {
				continued, err := e.loopContinue(wf, execCtx)
				if err != nil {
					e.fail(ctx, execution, nil, err)

					return
				}

				execution.CurrentNodeID = continued.NextNodeID

				err = e.persist(ctx, execution)
				if err != nil {
					e.fail(ctx, execution, nil, err)

					return
				}

				continue
			}

			e.complete(ctx, execution, iterations)

			return
		}

		iterations++
		if iterations > e.config.IterationLimit {
			e.fail(ctx, execution, nil, fmt.Errorf("%w (%d)", ErrIterationLimit, e.config.IterationLimit))

			return
		}

		node := wf.NodeByID(*execution.CurrentNodeID)
		if node == nil {
			e.fail(ctx, execution, nil, fmt.Errorf("node %s not found in workflow %s", *execution.CurrentNodeID, wf.ID))

			return
		}

		started := time.Now()

		_, nodeSpan := otelhelper.StartSpan(ctx, e.tracer, "engine.node",
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		)

		var (
			result *StepResult
			err    error
		)

		switch {
		case execCtx.Loop != nil && (node.ID == execCtx.Loop.NodeID || node.Type == models.NodeTypeEnd):
			result, err = e.loopContinue(wf, execCtx)
		case node.Type == models.NodeTypeLoop:
			result, err = e.loopEnter(wf, node, execCtx)
		default:
			result, err = e.executeNode(wf, node, execCtx)
		}

		if err != nil {
			otelhelper.SetError(nodeSpan, err)
			nodeSpan.End()
			e.fail(ctx, execution, node, err)

			return
		}

		if result.Delay > 0 {
			select {
			case <-time.After(result.Delay):
			case <-ctx.Done():
				otelhelper.SetError(nodeSpan, ctx.Err())
				nodeSpan.End()
				e.fail(ctx, execution, node, ctx.Err())

				return
			}
		}

		if result.Message != nil {
			err = gateway.SendWithRetry(ctx, e.gateway, execution.SessionID, execution.ContactID, result.Message, e.config.Retry)
			if err != nil {
				otelhelper.SetError(nodeSpan, err)
				nodeSpan.End()
				e.fail(ctx, execution, node, err)

				return
			}
		}

		nodeSpan.End()

		execCtx.Output = result.Output

		e.publish(ctx, execution.ID, events.NodeExecuted{
			BaseEvent:  e.baseEvent(events.NodeExecutedEvent, execution),
			NodeID:     node.ID,
			NodeType:   string(node.Type),
			DurationMs: time.Since(started).Milliseconds(),
			Output:     result.Output,
			Variables:  execCtx.PublicVariables(),
		})

		if result.Wait != nil {
			e.suspend(ctx, execution, node, result)

			return
		}

		execution.CurrentNodeID = result.NextNodeID

		err = e.persist(ctx, execution)
		if err != nil {
			e.fail(ctx, execution, node, err)

			return
		}
	}
}

// suspend marks the execution WAITING, persists the resume deadline in
// context and arms the in-process timer.
func (e *Engine) suspend(ctx context.Context, execution *models.Execution, node *models.Node, result *StepResult) {
	execCtx := &execution.Context
	wait := result.Wait

	timeout := wait.Timeout
	if !wait.PureTimer && timeout <= 0 {
		timeout = e.config.DefaultReplyTimeout
	}

	if wait.PureTimer {
		execution.CurrentNodeID = result.NextNodeID
	}

	if result.ButtonMap != nil {
		execCtx.SetButtonMap(result.ButtonMap)
	}

	execution.Status = models.StatusWaiting

	var resumeAt *time.Time

	if timeout > 0 {
		at := time.Now().UTC().Add(timeout)
		execCtx.SetWaitResumeAt(at)
		resumeAt = &at
	}

	err := e.persist(ctx, execution)
	if err != nil {
		e.fail(ctx, execution, node, err)

		return
	}

	if timeout > 0 {
		e.scheduleResume(execution.ID, timeout)
	}

	e.publish(ctx, execution.ID, events.ExecutionWaiting{
		BaseEvent: e.baseEvent(events.ExecutionWaitingEvent, execution),
		NodeID:    node.ID,
		ResumeAt:  resumeAt,
	})
}

// applyTimeoutPolicy handles an attended wait whose timeout fired: GOTO_NODE
// redirects the pointer and re-enters the loop, END (the default) expires
// the execution.
func (e *Engine) applyTimeoutPolicy(ctx context.Context, wf *models.Workflow, execution *models.Execution, node *models.Node) {
	policy, targetNodeID, err := timeoutPolicy(node)
	if err != nil {
		e.fail(ctx, execution, node, err)

		return
	}

	if policy != models.TimeoutPolicyGotoNode || targetNodeID == "" {
		e.expire(ctx, execution)

		return
	}

	execution.Context.ClearWait()
	execution.Status = models.StatusRunning
	execution.CurrentNodeID = &targetNodeID

	err = e.persist(ctx, execution)
	if err != nil {
		e.fail(ctx, execution, node, err)

		return
	}

	e.publish(ctx, execution.ID, events.ExecutionResumed{
		BaseEvent: e.baseEvent(events.ExecutionResumedEvent, execution),
		NodeID:    targetNodeID,
	})

	e.runLoop(ctx, wf, execution)
}

func timeoutPolicy(node *models.Node) (models.TimeoutPolicy, string, error) {
	switch node.Type {
	case models.NodeTypeWaitReply:
		var config models.WaitReplyConfig

		err := node.DecodeConfig(&config)

		return config.OnTimeout, config.TimeoutNodeID, err
	case models.NodeTypeSendButtons:
		var config models.SendButtonsConfig

		err := node.DecodeConfig(&config)

		return config.OnTimeout, config.TimeoutNodeID, err
	case models.NodeTypeConfirmPayment:
		var config models.ConfirmPaymentConfig

		err := node.DecodeConfig(&config)

		return config.OnTimeout, config.TimeoutNodeID, err
	default:
		return "", "", fmt.Errorf("node %s (%s) has no timeout policy", node.ID, node.Type)
	}
}

// Terminal transitions. All of them cancel the pending timer, clear wait
// bookkeeping, persist the final status and emit a terminal event.

func (e *Engine) complete(ctx context.Context, execution *models.Execution, nodesExecuted int) {
	e.timers.Cancel(execution.ID)
	execution.Context.ClearWait()
	execution.Status = models.StatusCompleted
	execution.CurrentNodeID = nil

	err := e.persist(ctx, execution)
	if err != nil {
		e.logger.Error("Failed to persist completed execution", "execution_id", execution.ID, "error", err)
	}

	e.logger.Info("Execution completed", "execution_id", execution.ID, "workflow_id", execution.WorkflowID)

	e.publish(ctx, execution.ID, events.ExecutionCompleted{
		BaseEvent:     e.baseEvent(events.ExecutionCompletedEvent, execution),
		Output:        execution.Context.Output,
		DurationMs:    time.Since(execution.StartedAt).Milliseconds(),
		NodesExecuted: nodesExecuted,
	})
}

func (e *Engine) fail(ctx context.Context, execution *models.Execution, node *models.Node, cause error) {
	e.timers.Cancel(execution.ID)
	execution.Context.ClearWait()
	execution.Status = models.StatusError

	nodeID, nodeType := "", ""
	if node != nil {
		nodeID, nodeType = node.ID, string(node.Type)
		execution.Error = fmt.Sprintf("node %s (%s): %v", node.ID, node.Type, cause)
	} else {
		execution.Error = cause.Error()
	}

	err := e.persist(ctx, execution)
	if err != nil {
		e.logger.Error("Failed to persist failed execution", "execution_id", execution.ID, "error", err)
	}

	e.logger.Error("Execution failed",
		"execution_id", execution.ID,
		"workflow_id", execution.WorkflowID,
		"node_id", nodeID,
		"error", cause)

	e.publish(ctx, execution.ID, events.ExecutionFailed{
		BaseEvent: e.baseEvent(events.ExecutionFailedEvent, execution),
		Error:     execution.Error,
		NodeID:    nodeID,
		NodeType:  nodeType,
	})
}

func (e *Engine) expire(ctx context.Context, execution *models.Execution) {
	e.timers.Cancel(execution.ID)

	nodeID := derefOr(execution.CurrentNodeID, "")

	execution.Context.ClearWait()
	execution.Status = models.StatusExpired

	err := e.persist(ctx, execution)
	if err != nil {
		e.logger.Error("Failed to persist expired execution", "execution_id", execution.ID, "error", err)
	}

	e.logger.Info("Execution expired", "execution_id", execution.ID, "node_id", nodeID)

	e.publish(ctx, execution.ID, events.ExecutionExpired{
		BaseEvent: e.baseEvent(events.ExecutionExpiredEvent, execution),
		NodeID:    nodeID,
	})
}

// clearActiveExecution force-fails a stale active execution blocking the
// conversation, or reports contention when the active one is healthy.
func (e *Engine) clearActiveExecution(ctx context.Context, tenantID, sessionID, contactID string) error {
	existing, err := e.store.FindActiveExecution(ctx, tenantID, sessionID, contactID)
	if err != nil {
		return err
	}

	if existing == nil {
		return nil
	}

	if !e.isStale(existing) {
		return ErrExecutionInProgress
	}

	e.fail(ctx, existing, nil, errors.New("stale execution superseded"))

	return nil
}

// matchTriggers scans the tenant's active workflows for a message trigger
// matching the inbound text, in workflow definition order.
func (e *Engine) matchTriggers(ctx context.Context, tenantID string, in *Inbound) (*models.Workflow, *models.Node, error) {
	workflows, err := e.store.ActiveWorkflows(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	for _, wf := range workflows {
		for _, trigger := range wf.TriggerNodes() {
			if trigger.Type != models.NodeTypeTriggerMessage {
				continue
			}

			matched, err := matchesMessageTrigger(trigger, in.Text)
			if err != nil {
				e.logger.Warn("Skipping trigger with invalid config",
					"workflow_id", wf.ID, "node_id", trigger.ID, "error", err)

				continue
			}

			if matched {
				return wf, trigger, nil
			}
		}
	}

	return nil, nil, nil
}

// isStale reports whether an active execution can be superseded: no recent
// update and no live future wait deadline.
func (e *Engine) isStale(execution *models.Execution) bool {
	if time.Since(execution.UpdatedAt) <= e.config.StalenessWindow {
		return false
	}

	if resumeAt, ok := execution.Context.WaitResumeAt(); ok && resumeAt.After(time.Now()) {
		return false
	}

	return true
}

func (e *Engine) isExpired(execution *models.Execution) bool {
	return execution.ExpiresAt != nil && time.Now().After(*execution.ExpiresAt)
}

// lockExecution loads an execution, takes its conversation lock and reloads
// the row under the lock.
func (e *Engine) lockExecution(ctx context.Context, executionID string) (*models.Execution, func(), error) {
	execution, err := e.store.ExecutionByID(ctx, executionID)
	if err != nil {
		return nil, nil, err
	}

	key := execution.LockKey()

	acquired, err := e.locks.Acquire(ctx, key, e.config.LockLease)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire conversation lock: %w", err)
	}

	if !acquired {
		return nil, nil, ErrExecutionInProgress
	}

	execution, err = e.store.ExecutionByID(ctx, executionID)
	if err != nil {
		e.releaseLock(ctx, key)

		return nil, nil, err
	}

	return execution, func() { e.releaseLock(ctx, key) }, nil
}

func (e *Engine) loadWorkflow(ctx context.Context, tenantID, workflowID string) (*models.Workflow, error) {
	wf, err := e.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if wf.TenantID != tenantID {
		return nil, persistence.ErrWorkflowNotFound
	}

	if wf.Status != models.WorkflowStatusActive {
		return nil, ErrWorkflowNotActive
	}

	return wf, nil
}

func (e *Engine) currentNode(wf *models.Workflow, execution *models.Execution) *models.Node {
	if execution.CurrentNodeID == nil {
		return nil
	}

	return wf.NodeByID(*execution.CurrentNodeID)
}

func (e *Engine) scheduleResume(executionID string, delay time.Duration) {
	e.timers.Schedule(executionID, delay, func() {
		err := e.ResumeFromTimer(context.Background(), executionID)
		if err != nil {
			e.logger.Error("Timer resume failed", "execution_id", executionID, "error", err)
		}
	})
}

func (e *Engine) persist(ctx context.Context, execution *models.Execution) error {
	execution.UpdatedAt = time.Now().UTC()

	return e.store.SaveExecution(ctx, execution)
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(ctx, key, event)
	if err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) baseEvent(eventType events.EventType, execution *models.Execution) events.BaseEvent {
	return events.NewBaseEvent(eventType,
		execution.TenantID, execution.WorkflowID, execution.ID,
		execution.SessionID, execution.ContactID)
}

func (e *Engine) releaseLock(ctx context.Context, key string) {
	err := e.locks.Release(context.WithoutCancel(ctx), key)
	if err != nil && !errors.Is(err, lock.ErrNotHeld) {
		e.logger.Warn("Failed to release conversation lock", "key", key, "error", err)
	}
}

func isAttendedWait(nodeType models.NodeType) bool {
	return nodeType == models.NodeTypeWaitReply ||
		nodeType == models.NodeTypeSendButtons ||
		nodeType == models.NodeTypeConfirmPayment
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}

	return *s
}
