package engine

import (
	"fmt"
	"time"

	"github.com/zapflow/zapflow/pkg/gateway"
	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/template"
)

// StepResult is the executor's decision for one node: where to go next,
// whether to suspend, what to send, and what the node produced. A nil
// NextNodeID with no wait terminates the branch.
type StepResult struct {
	NextNodeID *string
	Wait       *WaitRequest
	Output     any
	Message    *gateway.Message
	Delay      time.Duration

	// ButtonMap is stashed in context after a successful send so the future
	// reply can be routed back to an edge.
	ButtonMap map[string]string
}

// WaitRequest asks the engine to suspend the execution after this step.
type WaitRequest struct {
	// Timeout is the delay until the resume (pure timers) or timeout (reply
	// waits) timer fires. Zero on a reply wait means the engine default.
	Timeout time.Duration

	// PureTimer marks an unattended delay: the current-node pointer is moved
	// past the wait before suspending, so the timer resumes straight into
	// the run loop.
	PureTimer bool

	OnTimeout     models.TimeoutPolicy
	TimeoutNodeID string
}

// executeNode dispatches on node type. The switch is exhaustive over
// executable types; loop headers are handled by the loop controller before
// dispatch ever reaches here.
func (e *Engine) executeNode(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	switch node.Type {
	case models.NodeTypeSendMessage:
		return e.executeSendMessage(wf, node, execCtx)
	case models.NodeTypeSendMedia:
		return e.executeSendMedia(wf, node, execCtx)
	case models.NodeTypeSendButtons:
		return e.executeSendButtons(node, execCtx)
	case models.NodeTypeSendList:
		return e.executeSendList(wf, node, execCtx)
	case models.NodeTypeCondition:
		return e.executeCondition(wf, node, execCtx)
	case models.NodeTypeSwitch:
		return e.executeSwitch(wf, node, execCtx)
	case models.NodeTypeWait:
		return e.executeWait(wf, node)
	case models.NodeTypeWaitReply:
		return e.executeWaitReply(node)
	case models.NodeTypeSetVariable:
		return e.executeSetVariable(wf, node, execCtx)
	case models.NodeTypeConfirmPayment:
		return e.executeConfirmPayment(node, execCtx)
	case models.NodeTypeEnd:
		return e.executeEnd(node, execCtx)
	case models.NodeTypeTriggerMessage, models.NodeTypeTriggerSchedule, models.NodeTypeTriggerManual:
		return nil, fmt.Errorf("trigger node %s reached by the run loop", node.ID)
	case models.NodeTypeLoop:
		return nil, fmt.Errorf("loop node %s reached outside the loop controller", node.ID)
	default:
		return nil, fmt.Errorf("%w: %s (node %s)", ErrUnknownNodeType, node.Type, node.ID)
	}
}

func (e *Engine) executeSendMessage(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.SendMessageConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	text, err := template.RenderString(config.Text, execCtx)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		NextNodeID: wf.NextNodeID(node.ID),
		Output:     text,
		Message:    &gateway.Message{Kind: gateway.MessageKindText, Text: text},
		Delay:      time.Duration(config.DelaySeconds) * time.Second,
	}, nil
}

func (e *Engine) executeSendMedia(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.SendMediaConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	url, err := template.RenderString(config.URL, execCtx)
	if err != nil {
		return nil, err
	}

	caption, err := template.RenderString(config.Caption, execCtx)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		NextNodeID: wf.NextNodeID(node.ID),
		Output:     url,
		Message: &gateway.Message{
			Kind:      gateway.MessageKindMedia,
			MediaURL:  url,
			MediaType: config.MediaType,
			Caption:   caption,
		},
		Delay: time.Duration(config.DelaySeconds) * time.Second,
	}, nil
}

// executeSendButtons sends the button message and suspends. The button-id to
// label map travels in context so the reply can be matched without reloading
// the node config at resume time.
func (e *Engine) executeSendButtons(node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.SendButtonsConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	text, err := template.RenderString(config.Text, execCtx)
	if err != nil {
		return nil, err
	}

	buttonMap := make(map[string]string, len(config.Buttons))
	for _, button := range config.Buttons {
		buttonMap[button.ID] = button.Label
	}

	return &StepResult{
		Output:    text,
		Message:   &gateway.Message{Kind: gateway.MessageKindButtons, Text: text, Buttons: config.Buttons},
		ButtonMap: buttonMap,
		Wait: &WaitRequest{
			Timeout:       time.Duration(config.TimeoutSeconds) * time.Second,
			OnTimeout:     config.OnTimeout,
			TimeoutNodeID: config.TimeoutNodeID,
		},
	}, nil
}

// executeSendList is fire-and-forget: the run loop advances right after the
// send, list selections arrive as ordinary messages.
func (e *Engine) executeSendList(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.SendListConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	text, err := template.RenderString(config.Text, execCtx)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		NextNodeID: wf.NextNodeID(node.ID),
		Output:     text,
		Message: &gateway.Message{
			Kind:        gateway.MessageKindList,
			Text:        text,
			ButtonLabel: config.ButtonLabel,
			Sections:    config.Sections,
		},
	}, nil
}

func (e *Engine) executeCondition(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.ConditionConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	result, err := e.evaluator.EvaluateBool(config.Expression, execCtx)
	if err != nil {
		return nil, err
	}

	tag := models.EdgeConditionFalse
	if result {
		tag = models.EdgeConditionTrue
	}

	return &StepResult{NextNodeID: edgeTarget(wf, node.ID, tag), Output: result}, nil
}

func (e *Engine) executeSwitch(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.SwitchConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	for _, rule := range config.Rules {
		value1, err := template.RenderString(rule.Value1, execCtx)
		if err != nil {
			return nil, err
		}

		value2, err := template.RenderString(rule.Value2, execCtx)
		if err != nil {
			return nil, err
		}

		matched, err := models.EvaluateRule(rule.Operator, value1, value2)
		if err != nil {
			return nil, err
		}

		if matched {
			return &StepResult{NextNodeID: edgeTarget(wf, node.ID, rule.Output), Output: rule.Output}, nil
		}
	}

	return &StepResult{
		NextNodeID: edgeTarget(wf, node.ID, models.EdgeConditionDefault),
		Output:     models.EdgeConditionDefault,
	}, nil
}

// executeWait advances past the node before suspending, so the timer resumes
// straight into the run loop.
func (e *Engine) executeWait(wf *models.Workflow, node *models.Node) (*StepResult, error) {
	var config models.WaitConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		NextNodeID: wf.NextNodeID(node.ID),
		Wait: &WaitRequest{
			Timeout:   time.Duration(config.DurationSeconds) * time.Second,
			PureTimer: true,
		},
	}, nil
}

func (e *Engine) executeWaitReply(node *models.Node) (*StepResult, error) {
	var config models.WaitReplyConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		Wait: &WaitRequest{
			Timeout:       time.Duration(config.TimeoutSeconds) * time.Second,
			OnTimeout:     config.OnTimeout,
			TimeoutNodeID: config.TimeoutNodeID,
		},
	}, nil
}

func (e *Engine) executeSetVariable(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.SetVariableConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	assigned := make(map[string]any, len(config.Assignments))

	for _, assignment := range config.Assignments {
		if models.IsReservedKey(assignment.Name) {
			return nil, fmt.Errorf("variable name %q is reserved", assignment.Name)
		}

		value, err := template.RenderValue(assignment.Value, execCtx)
		if err != nil {
			return nil, err
		}

		execCtx.SetVariable(assignment.Name, value)
		assigned[assignment.Name] = value
	}

	return &StepResult{NextNodeID: wf.NextNodeID(node.ID), Output: assigned}, nil
}

func (e *Engine) executeConfirmPayment(node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.ConfirmPaymentConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	result := &StepResult{
		Wait: &WaitRequest{
			Timeout:       time.Duration(config.TimeoutSeconds) * time.Second,
			OnTimeout:     config.OnTimeout,
			TimeoutNodeID: config.TimeoutNodeID,
		},
	}

	if config.Text != "" {
		text, err := template.RenderString(config.Text, execCtx)
		if err != nil {
			return nil, err
		}

		result.Output = text
		result.Message = &gateway.Message{Kind: gateway.MessageKindText, Text: text}
	}

	return result, nil
}

func (e *Engine) executeEnd(node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	var config models.EndConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	output := make(map[string]any, len(config.OutputVariables))

	for _, name := range config.OutputVariables {
		if value, ok := execCtx.Variable(name); ok {
			output[name] = value
		}
	}

	return &StepResult{Output: output}, nil
}

// edgeTarget returns the target of the node's edge tagged with the given
// condition, or nil when no such edge exists.
func edgeTarget(wf *models.Workflow, nodeID, condition string) *string {
	edge := wf.EdgeFrom(nodeID, condition)
	if edge == nil {
		return nil
	}

	target := edge.TargetNodeID

	return &target
}
