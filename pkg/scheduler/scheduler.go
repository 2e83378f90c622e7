// Package scheduler drives cron-triggered workflow starts. It scans active
// workflows for schedule trigger nodes and starts an execution against the
// trigger's configured conversation whenever the cron expression fires.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/zapflow/zapflow/pkg/engine"
	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/persistence"
)

// Starter starts one workflow execution. Satisfied by engine.Engine.
type Starter interface {
	Start(ctx context.Context, tenantID, workflowID, sessionID, contactID, triggerNodeID string, in *engine.Inbound) (*models.Execution, error)
}

type Scheduler struct {
	mu      sync.Mutex
	logger  *slog.Logger
	store   persistence.Persistence
	starter Starter
	tenants []string
	cron    *cron.Cron
}

// NewScheduler creates a scheduler serving the given tenants. Call Reload to
// register the cron entries and Start to begin firing them.
func NewScheduler(logger *slog.Logger, store persistence.Persistence, starter Starter, tenantIDs []string) *Scheduler {
	return &Scheduler{
		logger:  logger.With("module", "scheduler"),
		store:   store,
		starter: starter,
		tenants: tenantIDs,
		cron:    cron.New(),
	}
}

// Reload rebuilds the cron table from the current set of active workflows.
// The previous table keeps firing until the rebuild succeeds.
func (s *Scheduler) Reload(ctx context.Context) error {
	rebuilt := cron.New()
	registered := 0

	for _, tenantID := range s.tenants {
		workflows, err := s.store.ActiveWorkflows(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to load workflows for tenant %s: %w", tenantID, err)
		}

		for _, wf := range workflows {
			count, err := s.registerWorkflow(rebuilt, wf)
			if err != nil {
				return err
			}

			registered += count
		}
	}

	s.mu.Lock()
	s.cron.Stop()
	s.cron = rebuilt
	s.cron.Start()
	s.mu.Unlock()

	s.logger.Info("Schedule table reloaded", "entries", registered)

	return nil
}

// Stop halts the cron table. Entries already firing run to completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Stop()
}

// Entries returns the number of registered cron entries.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.cron.Entries())
}

func (s *Scheduler) registerWorkflow(table *cron.Cron, wf *models.Workflow) (int, error) {
	registered := 0

	for _, trigger := range wf.TriggerNodes() {
		if trigger.Type != models.NodeTypeTriggerSchedule {
			continue
		}

		var config models.TriggerScheduleConfig

		err := trigger.DecodeConfig(&config)
		if err != nil {
			return 0, err
		}

		_, err = table.AddFunc(config.Cron, s.job(wf, trigger.ID, config))
		if err != nil {
			return 0, fmt.Errorf("invalid cron %q on workflow %s node %s: %w", config.Cron, wf.ID, trigger.ID, err)
		}

		registered++
	}

	return registered, nil
}

// job builds the closure fired by cron for one schedule trigger. Contention
// with an active conversation is expected and only logged.
func (s *Scheduler) job(wf *models.Workflow, triggerNodeID string, config models.TriggerScheduleConfig) func() {
	return func() {
		ctx := context.Background()

		execution, err := s.starter.Start(ctx, wf.TenantID, wf.ID, config.SessionID, config.ContactID, triggerNodeID, nil)
		if err != nil {
			if errors.Is(err, engine.ErrExecutionInProgress) {
				s.logger.Debug("Skipping scheduled start, conversation busy",
					"workflow_id", wf.ID, "trigger_node_id", triggerNodeID, "contact_id", config.ContactID)

				return
			}

			s.logger.Error("Scheduled start failed",
				"workflow_id", wf.ID, "trigger_node_id", triggerNodeID, "error", err)

			return
		}

		s.logger.Info("Scheduled execution started",
			"workflow_id", wf.ID, "execution_id", execution.ID, "contact_id", config.ContactID)
	}
}
