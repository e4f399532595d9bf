package bootstrap

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/minerva/erp/internal/domain/workflow"
	"github.com/minerva/erp/pkg/expression"
)

//go:embed workflows.json
var workflowsJSON []byte

// GetWorkflowDefinitions parses the embedded OS wizard definitions.
func GetWorkflowDefinitions() ([]*workflow.Definition, error) {
	var defs []*workflow.Definition
	if err := json.Unmarshal(workflowsJSON, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse workflows.json: %w", err)
	}
	return defs, nil
}

// InitializeWorkflows validates every definition, compiles its completion
// rules and registers it. Any broken definition aborts startup.
func InitializeWorkflows(registry *workflow.Registry, engine *expression.Engine) error {
	log.Println("🔧 Loading workflow definitions...")

	defs, err := GetWorkflowDefinitions()
	if err != nil {
		return err
	}

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		if _, err := workflow.BuildEvaluator(def, engine); err != nil {
			return err
		}
		if err := registry.Register(def); err != nil {
			return err
		}
		log.Printf("   ✅ %s %s (%d etapas, gating=%s)", def.OSType, def.Name, len(def.Steps), def.Gating)
	}
	return nil
}
