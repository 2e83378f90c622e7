package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/zapflow/zapflow/pkg/cmd"
	"github.com/zapflow/zapflow/pkg/log"
	"github.com/zapflow/zapflow/pkg/models"
	"github.com/zapflow/zapflow/pkg/validation"
)

// activate loads a workflow definition from a JSON file, validates it for
// execution and saves it with active status. Structural problems are
// reported here so they never reach the engine.
func activate(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("activate")

	path := command.Args().First()
	if path == "" {
		return errors.New("usage: zapflow-engine activate <workflow.json>")
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read workflow file: %w", err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(blob, &workflow)
	if err != nil {
		return fmt.Errorf("failed to parse workflow file: %w", err)
	}

	workflow.Status = models.WorkflowStatusActive

	validator, err := validation.NewValidator()
	if err != nil {
		return err
	}

	err = validator.ValidateForActivation(&workflow)
	if err != nil {
		return fmt.Errorf("workflow %s failed validation:\n%w", workflow.ID, err)
	}

	store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		err := store.Close(context.Background())
		if err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}()

	err = store.SaveWorkflow(ctx, &workflow)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	logger.Info("Workflow activated",
		"workflow_id", workflow.ID,
		"tenant_id", workflow.TenantID,
		"nodes", len(workflow.Nodes),
		"edges", len(workflow.Edges))

	return nil
}
