// File: internal/workflow/definition.go
// Description: Loading and validation of workflow definition documents.
// Unknown top-level fields are ignored so workflow files written for newer
// builds still load here.
package workflow

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadDefinition reads and validates a workflow definition from disk.
func LoadDefinition(path string) (*schemas.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file %s: %w", path, err)
	}
	return ParseDefinition(data)
}

// ParseDefinition decodes and validates a workflow definition document.
func ParseDefinition(data []byte) (*schemas.WorkflowDefinition, error) {
	var def schemas.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("invalid workflow JSON: %w", err)
	}
	if err := ValidateDefinition(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ValidateDefinition enforces the structural invariants of a definition:
// at least one objective, and objective IDs unique and non-empty within the
// document.
func ValidateDefinition(def *schemas.WorkflowDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("workflow is missing a name")
	}
	if len(def.Objectives) == 0 {
		return fmt.Errorf("workflow %q has no objectives", def.Name)
	}

	seen := make(map[string]struct{}, len(def.Objectives))
	for i, obj := range def.Objectives {
		if obj.ID == "" {
			return fmt.Errorf("objective at position %d has no id", i)
		}
		if _, dup := seen[obj.ID]; dup {
			return fmt.Errorf("duplicate objective id %q", obj.ID)
		}
		seen[obj.ID] = struct{}{}
		if obj.Type == "" {
			return fmt.Errorf("objective %q has no type", obj.ID)
		}
	}
	return nil
}
