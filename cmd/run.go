// -- cmd/run.go --
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/actions"
	"github.com/xkilldash9x/screenpilot/internal/executor"
	"github.com/xkilldash9x/screenpilot/internal/history"
	"github.com/xkilldash9x/screenpilot/internal/input"
	"github.com/xkilldash9x/screenpilot/internal/observability"
	"github.com/xkilldash9x/screenpilot/internal/platform"
	"github.com/xkilldash9x/screenpilot/internal/reporting"
	"github.com/xkilldash9x/screenpilot/internal/vision"
	"github.com/xkilldash9x/screenpilot/internal/window"
	"github.com/xkilldash9x/screenpilot/internal/workflow"
)

var (
	reportFormat string
	reportOutput string
	maxRetries   int
)

// errRunFailed signals a completed run with failed objectives. The report
// already carries the detail; the error only drives the exit code.
var errRunFailed = errors.New("workflow run did not succeed")

var runCmd = &cobra.Command{
	Use:   "run <workflow.json>",
	Short: "Execute a workflow definition against the configured application",
	Long: `Loads a workflow definition, brings the target application to its
base state (running, focused, maximized), then executes each objective in
declared order with visual verification and bounded retries. The run report
is written in the configured format; the command exits non-zero when the
run does not succeed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringVar(&reportFormat, "format", "", "report format: text or json (overrides config)")
	runCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "report output path, or stdout (overrides config)")
	runCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "attempt budget per instruction (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	ctx := cmd.Context()

	def, err := workflow.LoadDefinition(args[0])
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}
	logger.Info("Workflow loaded",
		zap.String("name", def.Name),
		zap.Int("objectives", len(def.Objectives)))

	caps, err := platform.New(logger)
	if err != nil {
		return err
	}

	if maxRetries <= 0 {
		maxRetries = cfg.Executor.MaxRetries
	}

	templates := vision.NewTemplateStore(cfg.Detector.TemplateDir, logger)
	detector, err := vision.NewCornerStateDetector(caps.Screen, templates, cfg.Detector, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize state detector: %w", err)
	}

	controller, err := window.NewController(caps.Windows, detector, cfg.App, maxRetries, logger)
	if err != nil {
		return err
	}
	pointer := input.NewPointer(caps.Input, cfg.Input, logger)

	registry, err := actions.BuildRegistry(actions.Deps{
		Detector:  detector,
		Window:    controller,
		Pointer:   pointer,
		Capture:   caps.Screen,
		Templates: templates,
		Text:      caps.Text,
		Threshold: cfg.Detector.Threshold,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build action registry: %w", err)
	}

	var store schemas.RunStore
	if cfg.History.Enabled {
		histStore, err := history.Connect(ctx, cfg.History.URL, logger)
		if err != nil {
			// History is an audit trail, not a precondition for automating.
			logger.Warn("Run history store unavailable; continuing without persistence", zap.Error(err))
		} else {
			defer histStore.Close()
			store = histStore
		}
	}

	exec := executor.NewUnifiedExecutor(registry, cfg.Executor, logger)
	engine := workflow.NewEngine(workflow.NewPlanner(registry, logger), exec, controller, store, maxRetries, logger)

	report, runErr := engine.Run(ctx, def)

	format, output := cfg.Report.Format, cfg.Report.Output
	if reportFormat != "" {
		format = reportFormat
	}
	if reportOutput != "" {
		output = reportOutput
	}
	reporter, err := reporting.New(format, output)
	if err != nil {
		return err
	}
	if err := reporter.Write(report); err != nil {
		logger.Error("Failed to write report", zap.Error(err))
	}
	if err := reporter.Close(); err != nil {
		logger.Warn("Failed to close report output", zap.Error(err))
	}

	if runErr != nil {
		return fmt.Errorf("workflow aborted: %w", runErr)
	}
	if !report.Success {
		// Returning an error (rather than exiting here) lets the deferred
		// store close and log sync run before the process reports failure.
		return errRunFailed
	}
	return nil
}
