// File: internal/workflow/planner.go
// Description: Objective classification and instruction planning. Expansion
// is deterministic: the same objective and type always yields the same
// instruction sequence.
package workflow

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/actions"
)

// instructionTemplates maps an objective type to its ordered instruction
// sequence. Most objectives are a single instruction of the same action
// type; maximization also brings the window to the foreground first, since
// a background window reports misleading visual state.
var instructionTemplates = map[schemas.ActionType][]schemas.Instruction{
	schemas.ActionMaximizeWindow: {
		{ActionType: schemas.ActionFocusWindow, Description: "Bring the window to the foreground"},
		{ActionType: schemas.ActionMaximizeWindow, Description: "Maximize the window"},
	},
}

// Planner turns supported objectives into executable instruction lists.
type Planner struct {
	registry *actions.Registry
	log      *zap.Logger
}

// NewPlanner creates a planner over the given action registry.
func NewPlanner(registry *actions.Registry, logger *zap.Logger) *Planner {
	return &Planner{
		registry: registry,
		log:      logger.Named("planner"),
	}
}

// Supports reports whether the objective's type is in the registry. The
// engine skips unsupported objectives with a warning instead of failing, so
// forward-compatible workflow files degrade gracefully.
func (p *Planner) Supports(obj schemas.Objective) bool {
	return p.registry.Supports(obj.Type)
}

// Plan validates the objective's parameters and expands it into its
// instruction list. A missing required parameter fails the objective before
// any handler runs.
func (p *Planner) Plan(obj schemas.Objective) ([]schemas.Instruction, error) {
	if !p.registry.Supports(obj.Type) {
		return nil, fmt.Errorf("%w: %q", schemas.ErrUnsupportedObjective, obj.Type)
	}

	if missing := p.registry.MissingParams(obj.Type, obj.Parameters); len(missing) > 0 {
		return nil, fmt.Errorf("objective %q is missing required values: %s", obj.ID, strings.Join(missing, ", "))
	}

	templates, ok := instructionTemplates[obj.Type]
	if !ok {
		templates = []schemas.Instruction{{ActionType: obj.Type}}
	}

	instructions := make([]schemas.Instruction, 0, len(templates))
	for _, tpl := range templates {
		instructions = append(instructions, schemas.Instruction{
			ActionType:  tpl.ActionType,
			Description: tpl.Description,
			Parameters:  mergeParameters(tpl.Parameters, obj.Parameters),
		})
	}

	p.log.Debug("Objective planned",
		zap.String("objective", obj.ID),
		zap.String("type", string(obj.Type)),
		zap.Int("instructions", len(instructions)))
	return instructions, nil
}

// mergeParameters overlays the objective's values on the instruction
// template's defaults. The objective wins on conflicts; neither input map
// is mutated.
func mergeParameters(templateParams, objectiveParams schemas.Parameters) schemas.Parameters {
	merged := make(schemas.Parameters, len(templateParams)+len(objectiveParams))
	for k, v := range templateParams {
		merged[k] = v
	}
	for k, v := range objectiveParams {
		merged[k] = v
	}
	return merged
}
