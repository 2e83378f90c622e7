// Package expression evaluates condition-node expressions against an
// execution context using expr-lang.
package expression

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/zapflow/zapflow/pkg/models"
)

// Evaluator compiles and runs boolean expressions. Compiled programs are
// cached by expression text and reused across goroutines.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator creates an expression evaluator with an empty program cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Environment builds the expression environment from an execution context.
// Reserved engine-internal variables are not exposed.
func Environment(execCtx *models.ExecutionContext) map[string]any {
	return map[string]any{
		"variables": execCtx.PublicVariables(),
		"input":     execCtx.Input,
		"output":    execCtx.Output,
	}
}

// Evaluate runs an expression against the context and returns its value.
func (e *Evaluator) Evaluate(expression string, execCtx *models.ExecutionContext) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	out, err := vm.Run(prg, Environment(execCtx))
	if err != nil {
		return nil, fmt.Errorf("expression %q failed: %w", expression, err)
	}

	return out, nil
}

// EvaluateBool runs an expression and coerces the result to a boolean.
// Non-boolean results follow truthiness: nil and zero values are false.
func (e *Evaluator) EvaluateBool(expression string, execCtx *models.ExecutionContext) (bool, error) {
	out, err := e.Evaluate(expression, execCtx)
	if err != nil {
		return false, err
	}

	switch v := out.(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	case string:
		return v != "", nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("expression %q evaluated to non-boolean %T", expression, out)
	}
}

func (e *Evaluator) getOrCompile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()

		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expression %q does not compile: %w", expression, err)
	}

	e.cache[expression] = prg

	return prg, nil
}
