// File: internal/workflow/engine.go
// Description: The workflow engine. Drives a run through its stages
// (Loaded -> Classified -> Prepared -> Executing -> Completed), executes
// objectives strictly in declared order, and aggregates the final report.
// Objective failures are non-fatal; only a readiness failure aborts a run.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/executor"
)

// RunState tracks the engine's position in the run lifecycle. Transitions
// are strictly forward; no stage is skipped.
type RunState string

const (
	StateLoaded     RunState = "loaded"
	StateClassified RunState = "classified"
	StatePrepared   RunState = "prepared"
	StateExecuting  RunState = "executing"
	StateCompleted  RunState = "completed"
)

// Readiness is the preparation capability: bring the target application to
// its known base state. Satisfied by window.Controller.
type Readiness interface {
	EnsureReady(ctx context.Context) error
}

// Engine runs workflow definitions. Execution is single threaded and
// strictly sequential: the screen and the foreground window are ambient
// shared state, and interleaving actions would make screenshots impossible
// to attribute to the action that preceded them.
type Engine struct {
	planner   *Planner
	exec      *executor.UnifiedExecutor
	readiness Readiness
	store     schemas.RunStore
	log       *zap.Logger

	maxRetries int
	state      RunState
	now        func() time.Time
}

// NewEngine assembles a workflow engine. store may be nil; run history
// persistence is optional.
func NewEngine(
	planner *Planner,
	exec *executor.UnifiedExecutor,
	readiness Readiness,
	store schemas.RunStore,
	maxRetries int,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		planner:    planner,
		exec:       exec,
		readiness:  readiness,
		store:      store,
		maxRetries: maxRetries,
		log:        logger.Named("workflow"),
		state:      StateLoaded,
		now:        time.Now,
	}
}

// State returns the engine's current lifecycle stage.
func (e *Engine) State() RunState { return e.state }

// Run executes the workflow and returns its report. The report always
// enumerates every objective with an explicit outcome, whatever happened;
// the error return is non-nil only for the fatal readiness case.
func (e *Engine) Run(ctx context.Context, def *schemas.WorkflowDefinition) (*schemas.WorkflowReport, error) {
	report := &schemas.WorkflowReport{
		RunID:     uuid.NewString(),
		Workflow:  def.Name,
		StartedAt: e.now(),
	}
	e.log.Info("Workflow run starting",
		zap.String("run_id", report.RunID),
		zap.String("workflow", def.Name),
		zap.Int("objectives", len(def.Objectives)))

	// Classification: decide per objective, in declared order, whether this
	// build can execute it. Unsupported types are skipped with a warning and
	// never reach a handler; they must not abort the run.
	supported := make([]bool, len(def.Objectives))
	for i, obj := range def.Objectives {
		supported[i] = e.planner.Supports(obj)
		status := schemas.OutcomePending
		message := ""
		if !supported[i] {
			status = schemas.OutcomeSkipped
			message = "unsupported objective type"
			e.log.Warn("Skipping unsupported objective",
				zap.String("objective", obj.ID),
				zap.String("type", string(obj.Type)))
		}
		report.Objectives = append(report.Objectives, schemas.ObjectiveResult{
			ObjectiveID: obj.ID,
			Name:        obj.Name,
			Type:        obj.Type,
			Status:      status,
			Message:     message,
		})
	}
	e.state = StateClassified

	// Preparation: the one stage whose failure is fatal. No instruction can
	// be meaningfully verified against an application that is not in a known
	// base state, so the run aborts before anything executes.
	if err := e.readiness.EnsureReady(ctx); err != nil {
		e.log.Error("Application readiness failed; aborting run", zap.Error(err))
		// Nothing executed; the run as a whole did not succeed, and the
		// persisted report must say so too.
		e.finalize(ctx, report, true)
		return report, err
	}
	e.state = StatePrepared

	e.state = StateExecuting
	for i, obj := range def.Objectives {
		if !supported[i] {
			continue
		}
		result := &report.Objectives[i]

		instructions, err := e.planner.Plan(obj)
		if err != nil {
			// Validation failures (missing required values) fail the
			// objective without invoking any handler, and the run goes on.
			result.Status = schemas.OutcomeFailed
			result.Message = err.Error()
			e.log.Warn("Objective failed validation",
				zap.String("objective", obj.ID),
				zap.Error(err))
			continue
		}

		e.log.Info("Executing objective",
			zap.String("objective", obj.ID),
			zap.String("type", string(obj.Type)),
			zap.Int("instructions", len(instructions)))

		objectiveOK := true
		for step, instr := range instructions {
			ok, msg := e.exec.Execute(ctx, instr, e.maxRetries)
			result.Attempts = append(result.Attempts, e.exec.DrainAttempts()...)
			if !ok {
				// The objective is failed, not skipped; subsequent
				// objectives still run because independent objectives must
				// not be blocked by an unrelated failure.
				objectiveOK = false
				result.Message = msg
				e.log.Warn("Instruction failed; abandoning objective",
					zap.String("objective", obj.ID),
					zap.Int("step", step+1),
					zap.Int("steps", len(instructions)),
					zap.String("reason", msg))
				break
			}
			result.Message = msg
		}

		if objectiveOK {
			result.Status = schemas.OutcomeSuccess
			e.log.Info("Objective completed", zap.String("objective", obj.ID))
		} else {
			result.Status = schemas.OutcomeFailed
		}
	}

	e.finalize(ctx, report, false)
	e.state = StateCompleted
	e.log.Info("Workflow run finished",
		zap.String("run_id", report.RunID),
		zap.Bool("success", report.Success),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// finalize computes the report counts and persists the run when a store is
// configured. Persistence is best-effort by design. An aborted run is never
// successful, whatever the per-objective counts say.
func (e *Engine) finalize(ctx context.Context, report *schemas.WorkflowReport, aborted bool) {
	report.FinishedAt = e.now()
	report.Succeeded, report.Failed, report.Skipped = 0, 0, 0
	for _, obj := range report.Objectives {
		switch obj.Status {
		case schemas.OutcomeSuccess:
			report.Succeeded++
		case schemas.OutcomeFailed:
			report.Failed++
		case schemas.OutcomeSkipped:
			report.Skipped++
		}
	}
	// Skipped objectives never count against overall success.
	report.Success = !aborted && report.Failed == 0

	if e.store != nil {
		if err := e.store.SaveReport(ctx, report); err != nil {
			e.log.Warn("Failed to persist run report", zap.Error(err))
		}
	}
}
