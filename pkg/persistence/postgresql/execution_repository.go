package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations. The
// context is persisted as one opaque JSONB blob after every node transition.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , tenant_id
  , workflow_id
  , session_id
  , contact_id
  , current_node_id
  , status
  , context
  , interaction_count
  , started_at
  , updated_at
  , expires_at
  , error
`

// Save upserts an execution row.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	contextJSON, err := json.Marshal(execution.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal execution context: %w", err)
	}

	execution.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO workflow_executions (
			id, tenant_id, workflow_id, session_id, contact_id, current_node_id,
			status, context, interaction_count, started_at, updated_at, expires_at, error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			current_node_id = EXCLUDED.current_node_id,
			status = EXCLUDED.status,
			context = EXCLUDED.context,
			interaction_count = EXCLUDED.interaction_count,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at,
			error = EXCLUDED.error
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.TenantID,
		execution.WorkflowID,
		execution.SessionID,
		execution.ContactID,
		execution.CurrentNodeID,
		execution.Status,
		contextJSON,
		execution.InteractionCount,
		execution.StartedAt,
		execution.UpdatedAt,
		execution.ExpiresAt,
		execution.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	return nil
}

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// FindActive returns the single active execution of a conversation, or nil.
func (r *ExecutionRepository) FindActive(ctx context.Context, tenantID, sessionID, contactID string) (*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE tenant_id = $1 AND session_id = $2 AND contact_id = $3
		  AND status IN ($4, $5)
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query,
		tenantID, sessionID, contactID, models.StatusRunning, models.StatusWaiting))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// ByStatus returns all executions in any of the given statuses.
func (r *ExecutionRepository) ByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Execution, error) {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}

	query := `
		SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE status = ANY($1)
		ORDER BY updated_at
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution   models.Execution
		contextJSON []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.TenantID,
		&execution.WorkflowID,
		&execution.SessionID,
		&execution.ContactID,
		&execution.CurrentNodeID,
		&execution.Status,
		&contextJSON,
		&execution.InteractionCount,
		&execution.StartedAt,
		&execution.UpdatedAt,
		&execution.ExpiresAt,
		&execution.Error,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(contextJSON, &execution.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution context: %w", err)
	}

	return &execution, nil
}
