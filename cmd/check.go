// -- cmd/check.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/observability"
	"github.com/xkilldash9x/screenpilot/internal/platform"
	"github.com/xkilldash9x/screenpilot/internal/vision"
)

var checkTarget string

// checkCmd runs a one-shot state detection without executing anything. Useful
// for tuning templates and thresholds against a live screen.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single visual state detection and print the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		var target schemas.DetectionTarget
		switch checkTarget {
		case "open":
			target = schemas.TargetOpen
		case "maximized":
			target = schemas.TargetMaximized
		default:
			return fmt.Errorf("unknown target %q: must be open or maximized", checkTarget)
		}

		caps, err := platform.New(logger)
		if err != nil {
			return err
		}

		templates := vision.NewTemplateStore(cfg.Detector.TemplateDir, logger)
		detector, err := vision.NewCornerStateDetector(caps.Screen, templates, cfg.Detector, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize state detector: %w", err)
		}
		if detector.Degraded() {
			logger.Warn("Detector running in degraded single-template mode")
		}

		result, err := detector.Detect(cmd.Context(), target)
		if err != nil {
			return err
		}

		fmt.Printf("Target:  %s\n", result.Target)
		fmt.Printf("Verdict: %t\n", result.Verdict)
		if result.Degraded {
			fmt.Println("Mode:    degraded (single template)")
		}
		for _, m := range result.Matches {
			corner := string(m.Corner)
			if corner == "" || m.Corner == schemas.CornerNone {
				corner = "full_screen"
			}
			fmt.Printf("  %-13s found=%-5t confidence=%.3f at (%d,%d)\n",
				corner, m.Found, m.Confidence, m.Global.X, m.Global.Y)
		}

		logger.Info("Detection check finished",
			zap.String("target", string(target)),
			zap.Bool("verdict", result.Verdict))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkTarget, "target", "t", "maximized", "state to check: open or maximized")
	rootCmd.AddCommand(checkCmd)
}
