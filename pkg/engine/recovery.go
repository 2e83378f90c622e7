package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zapflow/zapflow/pkg/models"
)

// RecoverExecutions rebuilds the timer registry from persisted state after a
// process start. Waiting executions with a future resume deadline get a new
// timer; past deadlines fire immediately. Anything active with no deadline
// and no recent activity is force-failed so a crash can never leave a row
// stuck in RUNNING forever.
func (e *Engine) RecoverExecutions(ctx context.Context) error {
	executions, err := e.store.ExecutionsByStatus(ctx, models.StatusRunning, models.StatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to scan active executions: %w", err)
	}

	recovered, failed := 0, 0

	for _, execution := range executions {
		if execution.Status == models.StatusWaiting {
			if resumeAt, ok := execution.Context.WaitResumeAt(); ok {
				e.recoverWaiting(ctx, execution, resumeAt)
				recovered++

				continue
			}
		}

		// RUNNING, or WAITING with no deadline: only staleness decides.
		if time.Since(execution.UpdatedAt) > e.config.StalenessWindow {
			e.failStale(ctx, execution)
			failed++
		}
	}

	e.logger.Info("Startup recovery finished",
		"scanned", len(executions),
		"timers_recovered", recovered,
		"force_failed", failed)

	return nil
}

func (e *Engine) recoverWaiting(ctx context.Context, execution *models.Execution, resumeAt time.Time) {
	remaining := time.Until(resumeAt)

	if remaining <= 0 {
		e.logger.Info("Resuming execution with past deadline",
			"execution_id", execution.ID, "resume_at", resumeAt)

		err := e.ResumeFromTimer(ctx, execution.ID)
		if err != nil {
			e.logger.Error("Failed to resume recovered execution",
				"execution_id", execution.ID, "error", err)
		}

		return
	}

	e.logger.Debug("Re-armed wait timer",
		"execution_id", execution.ID, "resume_at", resumeAt)

	e.scheduleResume(execution.ID, remaining)
}

// failStale force-fails one stale execution under its conversation lock.
func (e *Engine) failStale(ctx context.Context, execution *models.Execution) {
	fresh, release, err := e.lockExecution(ctx, execution.ID)
	if err != nil {
		if !errors.Is(err, ErrExecutionInProgress) {
			e.logger.Error("Failed to lock stale execution",
				"execution_id", execution.ID, "error", err)
		}

		return
	}
	defer release()

	if fresh.Status.IsTerminal() {
		return
	}

	e.fail(ctx, fresh, nil, errors.New("stale after restart"))
}
