// Package persistence provides the data storage abstraction for workflows
// and workflow executions.
package persistence

import (
	"context"

	"github.com/zapflow/zapflow/pkg/models"
)

type Persistence interface {
	// Workflows.
	ActiveWorkflows(ctx context.Context, tenantID string) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	// Executions. SaveExecution is an upsert; the engine persists after every
	// node transition.
	SaveExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	FindActiveExecution(ctx context.Context, tenantID, sessionID, contactID string) (*models.Execution, error)
	ExecutionsByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Execution, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
