// Package memory provides an in-memory persistence implementation for tests
// and local development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/persistence"
)

// Persistence implements persistence.Persistence with mutex-guarded maps.
// Values are deep-copied through JSON on the way in and out so callers never
// share mutable state with the store, mirroring the isolation a real
// database provides.
type Persistence struct {
	mu         sync.RWMutex
	workflows  map[string]*models.Workflow
	executions map[string]*models.Execution
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows:  make(map[string]*models.Workflow),
		executions: make(map[string]*models.Execution),
	}
}

func (p *Persistence) ActiveWorkflows(_ context.Context, tenantID string) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var active []*models.Workflow

	for _, wf := range p.workflows {
		if wf.TenantID == tenantID && wf.Status == models.WorkflowStatusActive {
			copied, err := deepCopy(wf)
			if err != nil {
				return nil, err
			}

			active = append(active, copied)
		}
	}

	return active, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	wf, ok := p.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s: %w", id, persistence.ErrWorkflowNotFound)
	}

	return deepCopy(wf)
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	copied, err := deepCopy(workflow)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.workflows[workflow.ID] = copied

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.workflows[id]; !ok {
		return fmt.Errorf("workflow %s: %w", id, persistence.ErrWorkflowNotFound)
	}

	delete(p.workflows, id)

	return nil
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	copied, err := deepCopy(execution)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.executions[execution.ID] = copied

	return nil
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution, ok := p.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
	}

	return deepCopy(execution)
}

func (p *Persistence) FindActiveExecution(_ context.Context, tenantID, sessionID, contactID string) (*models.Execution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, execution := range p.executions {
		if execution.TenantID == tenantID &&
			execution.SessionID == sessionID &&
			execution.ContactID == contactID &&
			execution.Status.IsActive() {
			return deepCopy(execution)
		}
	}

	return nil, nil
}

func (p *Persistence) ExecutionsByStatus(_ context.Context, statuses ...models.Status) ([]*models.Execution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var matched []*models.Execution

	for _, execution := range p.executions {
		for _, status := range statuses {
			if execution.Status == status {
				copied, err := deepCopy(execution)
				if err != nil {
					return nil, err
				}

				matched = append(matched, copied)

				break
			}
		}
	}

	return matched, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func deepCopy[T any](v *T) (*T, error) {
	blob, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to copy value: %w", err)
	}

	copied := new(T)

	err = json.Unmarshal(blob, copied)
	if err != nil {
		return nil, fmt.Errorf("failed to copy value: %w", err)
	}

	return copied, nil
}

var _ persistence.Persistence = (*Persistence)(nil)
