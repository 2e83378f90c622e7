package engine

import (
	"fmt"
	"strings"

	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/template"
)

// Loop controller. A loop is a repeated traversal of the subgraph behind the
// header's "loop" edge, driven by a frame carried in the context, not a
// nested execution. The run loop routes the loop header and any terminal
// node reached while a frame is active here instead of the executor.

// loopEnter handles the first visit to a loop header: evaluate the sequence,
// install the frame, bind the item variables and enter the body.
func (e *Engine) loopEnter(wf *models.Workflow, node *models.Node, execCtx *models.ExecutionContext) (*StepResult, error) {
	if execCtx.Loop != nil {
		return nil, fmt.Errorf("loop node %s reached while loop %s is active: nested loops are not supported",
			node.ID, execCtx.Loop.NodeID)
	}

	var config models.LoopConfig

	err := node.DecodeConfig(&config)
	if err != nil {
		return nil, err
	}

	value, err := e.loopItems(config.Items, execCtx)
	if err != nil {
		return nil, err
	}

	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("loop node %s: items did not evaluate to a sequence (got %T)", node.ID, value)
	}

	if len(items) == 0 {
		return &StepResult{NextNodeID: edgeTarget(wf, node.ID, models.EdgeConditionDone)}, nil
	}

	itemVariable := config.ItemVariable
	if itemVariable == "" {
		itemVariable = models.DefaultLoopItemVariable
	}

	indexVariable := config.IndexVariable
	if indexVariable == "" {
		indexVariable = models.DefaultLoopIndexVariable
	}

	frame := &models.LoopFrame{
		NodeID:        node.ID,
		Items:         items,
		ItemVariable:  itemVariable,
		IndexVariable: indexVariable,
		Iterations:    1,
	}

	execCtx.Loop = frame
	frame.Bind(execCtx)

	next, err := loopBodyTarget(wf, node.ID)
	if err != nil {
		return nil, err
	}

	return &StepResult{NextNodeID: next, Output: frame.Current()}, nil
}

// loopContinue handles a revisit of the header, or an end node or dead end
// reached while the frame is active: advance the index and re-enter the
// body, or tear the frame down and leave through the "done" edge.
func (e *Engine) loopContinue(wf *models.Workflow, execCtx *models.ExecutionContext) (*StepResult, error) {
	frame := execCtx.Loop

	header := wf.NodeByID(frame.NodeID)
	if header == nil {
		return nil, fmt.Errorf("loop header %s not found in workflow", frame.NodeID)
	}

	frame.Index++

	if frame.Exhausted() {
		frame.Unbind(execCtx)
		execCtx.Loop = nil

		return &StepResult{NextNodeID: edgeTarget(wf, header.ID, models.EdgeConditionDone)}, nil
	}

	frame.Iterations++
	frame.Bind(execCtx)

	next, err := loopBodyTarget(wf, header.ID)
	if err != nil {
		return nil, err
	}

	return &StepResult{NextNodeID: next, Output: frame.Current()}, nil
}

// loopItems evaluates the configured sequence. A bare {{...}} placeholder is
// evaluated as an expression so list-valued variables keep their shape;
// rendering it through the template engine would stringify them.
func (e *Engine) loopItems(items string, execCtx *models.ExecutionContext) (any, error) {
	trimmed := strings.TrimSpace(items)

	if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") &&
		strings.Count(trimmed, "{{") == 1 {
		return e.evaluator.Evaluate(strings.TrimSpace(trimmed[2:len(trimmed)-2]), execCtx)
	}

	return template.RenderValue(items, execCtx)
}

func loopBodyTarget(wf *models.Workflow, headerID string) (*string, error) {
	next := edgeTarget(wf, headerID, models.EdgeConditionLoop)
	if next == nil {
		return nil, fmt.Errorf("loop node %s has no loop edge", headerID)
	}

	return next, nil
}
