// Package validation checks workflows at activation time. Structural
// problems (dangling edges, missing terminal nodes, malformed node configs)
// are rejected here and never reach the execution engine.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/zapflow/zapflow/pkg/models"
)

// Validator validates workflow graphs and node configurations.
type Validator struct {
	validate *validator.Validate
	schemas  map[models.NodeType]*gojsonschema.Schema
}

// NewValidator compiles all node config schemas up front.
func NewValidator() (*Validator, error) {
	schemas := make(map[models.NodeType]*gojsonschema.Schema, len(configSchemas))

	for nodeType, raw := range configSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", nodeType, err)
		}

		schemas[nodeType] = schema
	}

	return &Validator{
		validate: validator.New(),
		schemas:  schemas,
	}, nil
}

// ValidateForActivation checks everything a workflow must satisfy before it
// may execute. All problems are collected and reported together.
func (v *Validator) ValidateForActivation(workflow *models.Workflow) error {
	var problems []error

	err := v.validate.Struct(workflow)
	if err != nil {
		problems = append(problems, err)
	}

	nodeIDs := make(map[string]*models.Node, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		if _, duplicate := nodeIDs[node.ID]; duplicate {
			problems = append(problems, fmt.Errorf("duplicate node id %s", node.ID))
		}

		nodeIDs[node.ID] = node

		problems = append(problems, v.validateNodeConfig(node)...)
	}

	hasEnd := false

	for _, node := range workflow.Nodes {
		if node.Type == models.NodeTypeEnd {
			hasEnd = true
		}
	}

	if !hasEnd {
		problems = append(problems, errors.New("workflow must have at least one end node"))
	}

	for _, edge := range workflow.Edges {
		if _, ok := nodeIDs[edge.SourceNodeID]; !ok {
			problems = append(problems, fmt.Errorf("edge %s references missing source node %s", edge.ID, edge.SourceNodeID))
		}

		if _, ok := nodeIDs[edge.TargetNodeID]; !ok {
			problems = append(problems, fmt.Errorf("edge %s references missing target node %s", edge.ID, edge.TargetNodeID))
		}
	}

	for _, node := range workflow.Nodes {
		switch node.Type {
		case models.NodeTypeSwitch:
			if workflow.EdgeFrom(node.ID, models.EdgeConditionDefault) == nil {
				problems = append(problems, fmt.Errorf("switch node %s requires a default edge", node.ID))
			}
		case models.NodeTypeLoop:
			if workflow.EdgeFrom(node.ID, models.EdgeConditionLoop) == nil {
				problems = append(problems, fmt.Errorf("loop node %s requires a loop edge", node.ID))
			}
		}
	}

	return errors.Join(problems...)
}

func (v *Validator) validateNodeConfig(node *models.Node) []error {
	schema, known := v.schemas[node.Type]
	if !known {
		return []error{fmt.Errorf("node %s has unknown type %q", node.ID, node.Type)}
	}

	config := node.Config
	if len(config) == 0 {
		config = []byte("{}")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(config))
	if err != nil {
		return []error{fmt.Errorf("node %s config is not valid JSON: %w", node.ID, err)}
	}

	var problems []error

	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Errorf("node %s config: %s", node.ID, desc))
	}

	return problems
}
