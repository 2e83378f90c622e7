package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Reserved context variable keys. Keys prefixed with "_" are engine-internal
// bookkeeping and are never exposed to node templates or expressions. Loop
// keys exist only in the persisted form; in memory the loop state lives in
// the typed LoopFrame.
const (
	reservedPrefix = "_"

	loopNodeIDKey     = "_loopNodeId"
	loopDataKey       = "_loopData"
	loopIndexKey      = "_loopCurrentIndex"
	loopItemVarKey    = "_loopItemVariable"
	loopIndexVarKey   = "_loopIndexVariable"
	loopIterationsKey = "_loopIterationsExecuted"

	waitResumeAtKey = "_waitResumeAt"
	waitButtonsKey  = "_waitButtons"
)

// IsReservedKey reports whether a variable name is engine-internal.
func IsReservedKey(name string) bool {
	return strings.HasPrefix(name, reservedPrefix)
}

// ExecutionContext is the mutable data bag carried through a run: variables,
// the payload that triggered the current step, and the output of the most
// recently executed node. It is persisted as a single JSON blob after every
// mutation; the loop frame is flattened into reserved variables on the way
// out so the stored format stays one uniform object.
type ExecutionContext struct {
	Variables map[string]any `json:"-"`
	Input     any            `json:"-"`
	Output    any            `json:"-"`
	Loop      *LoopFrame     `json:"-"`
}

// NewExecutionContext returns an empty context ready for variable writes.
func NewExecutionContext() ExecutionContext {
	return ExecutionContext{Variables: make(map[string]any)}
}

type executionContextJSON struct {
	Variables map[string]any `json:"variables"`
	Input     any            `json:"input,omitempty"`
	Output    any            `json:"output,omitempty"`
}

// MarshalJSON flattens the loop frame into the reserved _loop* variables.
func (c ExecutionContext) MarshalJSON() ([]byte, error) {
	variables := make(map[string]any, len(c.Variables)+6)
	for k, v := range c.Variables {
		variables[k] = v
	}

	if c.Loop != nil {
		variables[loopNodeIDKey] = c.Loop.NodeID
		variables[loopDataKey] = c.Loop.Items
		variables[loopIndexKey] = c.Loop.Index
		variables[loopItemVarKey] = c.Loop.ItemVariable
		variables[loopIndexVarKey] = c.Loop.IndexVariable
		variables[loopIterationsKey] = c.Loop.Iterations
	}

	return json.Marshal(executionContextJSON{
		Variables: variables,
		Input:     c.Input,
		Output:    c.Output,
	})
}

// UnmarshalJSON restores the loop frame from the reserved _loop* variables.
func (c *ExecutionContext) UnmarshalJSON(data []byte) error {
	var raw executionContextJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	c.Variables = raw.Variables
	if c.Variables == nil {
		c.Variables = make(map[string]any)
	}

	c.Input = raw.Input
	c.Output = raw.Output
	c.Loop = nil

	if nodeID, ok := c.Variables[loopNodeIDKey].(string); ok {
		items, _ := c.Variables[loopDataKey].([]any)
		itemVar, _ := c.Variables[loopItemVarKey].(string)
		indexVar, _ := c.Variables[loopIndexVarKey].(string)

		c.Loop = &LoopFrame{
			NodeID:        nodeID,
			Items:         items,
			Index:         intVariable(c.Variables[loopIndexKey]),
			ItemVariable:  itemVar,
			IndexVariable: indexVar,
			Iterations:    intVariable(c.Variables[loopIterationsKey]),
		}

		for _, key := range []string{
			loopNodeIDKey, loopDataKey, loopIndexKey,
			loopItemVarKey, loopIndexVarKey, loopIterationsKey,
		} {
			delete(c.Variables, key)
		}
	}

	return nil
}

// intVariable converts a variable that round-tripped through JSON back to int.
func intVariable(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// SetVariable assigns a context variable.
func (c *ExecutionContext) SetVariable(name string, value any) {
	if c.Variables == nil {
		c.Variables = make(map[string]any)
	}

	c.Variables[name] = value
}

// Variable returns a context variable and whether it is set.
func (c *ExecutionContext) Variable(name string) (any, bool) {
	v, ok := c.Variables[name]

	return v, ok
}

// PublicVariables returns the variables visible to node authors, excluding
// all reserved engine-internal keys.
func (c *ExecutionContext) PublicVariables() map[string]any {
	public := make(map[string]any, len(c.Variables))

	for k, v := range c.Variables {
		if IsReservedKey(k) {
			continue
		}

		public[k] = v
	}

	return public
}

// SetWaitResumeAt records the scheduled resume time of a suspended execution.
// The deadline lives in the persisted context so it survives a crash even
// though the in-process timer does not.
func (c *ExecutionContext) SetWaitResumeAt(t time.Time) {
	c.SetVariable(waitResumeAtKey, t.UTC().Format(time.RFC3339Nano))
}

// WaitResumeAt returns the scheduled resume time, if one is set.
func (c *ExecutionContext) WaitResumeAt() (time.Time, bool) {
	raw, ok := c.Variables[waitResumeAtKey].(string)
	if !ok {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// SetButtonMap stores the button-id to label mapping used to route a future
// reply, placed in context at send time.
func (c *ExecutionContext) SetButtonMap(buttons map[string]string) {
	c.SetVariable(waitButtonsKey, buttons)
}

// ButtonMap returns the stored button mapping, if any.
func (c *ExecutionContext) ButtonMap() map[string]string {
	switch m := c.Variables[waitButtonsKey].(type) {
	case map[string]string:
		return m
	case map[string]any:
		buttons := make(map[string]string, len(m))

		for id, label := range m {
			if s, ok := label.(string); ok {
				buttons[id] = s
			}
		}

		return buttons
	default:
		return nil
	}
}

// ClearWait removes all wait bookkeeping after a resume or terminal
// transition.
func (c *ExecutionContext) ClearWait() {
	delete(c.Variables, waitResumeAtKey)
	delete(c.Variables, waitButtonsKey)
}
