package models

// Default variable names a loop header exposes when its config names none.
const (
	DefaultLoopItemVariable  = "item"
	DefaultLoopIndexVariable = "index"
)

// LoopFrame is the iteration state of an active for-each loop. A loop is not
// a nested execution: it is a repeated traversal of the subgraph behind the
// header's "loop" edge, with this frame carried in the context. The frame is
// persisted flattened into the reserved _loop* context variables.
type LoopFrame struct {
	NodeID        string // the loop header node
	Items         []any  // the ordered sequence being iterated
	Index         int
	ItemVariable  string
	IndexVariable string
	Iterations    int // total body entries, for observability
}

// Exhausted reports whether the sequence has no items left.
func (f *LoopFrame) Exhausted() bool {
	return f.Index >= len(f.Items)
}

// Current returns the item at the frame's index.
func (f *LoopFrame) Current() any {
	if f.Index < 0 || f.Index >= len(f.Items) {
		return nil
	}

	return f.Items[f.Index]
}

// Bind exposes the current item and index under the frame's variable names.
func (f *LoopFrame) Bind(ctx *ExecutionContext) {
	ctx.SetVariable(f.ItemVariable, f.Current())
	ctx.SetVariable(f.IndexVariable, f.Index)
}

// Unbind removes the exposed item and index variables.
func (f *LoopFrame) Unbind(ctx *ExecutionContext) {
	delete(ctx.Variables, f.ItemVariable)
	delete(ctx.Variables, f.IndexVariable)
}
