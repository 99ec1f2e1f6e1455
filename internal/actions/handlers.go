// File: internal/actions/handlers.go
// Description: Built-in action handlers. Each action type supplies perform,
// an optional screen-level verifier, and an optional recovery step. Handlers
// reach the OS only through the injected capabilities, never through ambient
// globals.
package actions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/input"
	"github.com/xkilldash9x/screenpilot/internal/vision"
	"github.com/xkilldash9x/screenpilot/internal/window"
)

// textMatchThreshold is the minimum OCR similarity accepted by the text
// verifiers.
const textMatchThreshold = 0.8

// Deps bundles the capabilities the built-in handlers act through.
type Deps struct {
	Detector  schemas.StateDetector
	Window    *window.Controller
	Pointer   *input.Pointer
	Capture   schemas.ScreenCapture
	Templates *vision.TemplateStore
	// Text is optional; without it the text actions are not registered and
	// objectives using them are skipped as unsupported.
	Text      schemas.TextRecognizer
	Threshold float64
	Logger    *zap.Logger
	// Sleep is swappable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (d *Deps) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BuildRegistry constructs the static registry of built-in actions over the
// given capability set.
func BuildRegistry(deps Deps) (*Registry, error) {
	if deps.Detector == nil || deps.Window == nil || deps.Pointer == nil ||
		deps.Capture == nil || deps.Templates == nil || deps.Logger == nil {
		return nil, fmt.Errorf("cannot build action registry with nil dependencies")
	}
	log := deps.Logger.Named("actions")

	registry := NewRegistry(deps.Logger)
	registrations := []Registration{
		{
			Type:           schemas.ActionWait,
			RequiredParams: []string{"duration"},
			Perform: func(ctx context.Context, params schemas.Parameters) error {
				seconds := params.Float("duration", 1)
				return deps.sleep(ctx, time.Duration(seconds*float64(time.Second)))
			},
		},
		{
			Type:        schemas.ActionLaunchApplication,
			HasVerifier: true,
			HasRecovery: true,
			Perform: func(ctx context.Context, params schemas.Parameters) error {
				return deps.Window.EnsureOpen(ctx)
			},
			Verify: func(ctx context.Context, params schemas.Parameters) schemas.VerifyOutcome {
				running, err := deps.Window.IsRunning(ctx)
				if err != nil {
					return schemas.Unverified(fmt.Sprintf("process check failed: %v", err))
				}
				if !running {
					return schemas.Unverified("process is not running after launch")
				}
				return schemas.Verified("process is running")
			},
			Recover: func(ctx context.Context, failure string, attempt, maxAttempts int, params schemas.Parameters) (bool, string) {
				// Give the process time to come up before the next attempt.
				if err := deps.sleep(ctx, time.Second); err != nil {
					return false, err.Error()
				}
				return true, "waited for process startup"
			},
		},
		{
			Type:        schemas.ActionFocusWindow,
			HasVerifier: true,
			HasRecovery: true,
			Perform: func(ctx context.Context, params schemas.Parameters) error {
				return deps.Window.Focus(ctx)
			},
			Verify: func(ctx context.Context, params schemas.Parameters) schemas.VerifyOutcome {
				foreground, err := deps.Window.IsForeground(ctx)
				if err != nil {
					return schemas.Unverified(fmt.Sprintf("foreground check failed: %v", err))
				}
				if !foreground {
					return schemas.Unverified("window is not in the foreground")
				}
				return schemas.Verified("window is in the foreground")
			},
			Recover: recoverRefocus(deps, log),
		},
		{
			Type:        schemas.ActionMaximizeWindow,
			HasVerifier: true,
			HasRecovery: true,
			Perform: func(ctx context.Context, params schemas.Parameters) error {
				return deps.Window.Maximize(ctx)
			},
			Verify: func(ctx context.Context, params schemas.Parameters) schemas.VerifyOutcome {
				detection, err := deps.Detector.Detect(ctx, schemas.TargetMaximized)
				if err != nil {
					return schemas.Unverified(fmt.Sprintf("visual check failed: %v", err))
				}
				if !detection.Verdict {
					return schemas.Unverified(fmt.Sprintf("window not visually maximized; missing corners: %v", detection.MissingCorners()))
				}
				return schemas.VerifiedWithDetail("window visually maximized", map[string]interface{}{
					"degraded": detection.Degraded,
					"matches":  len(detection.Matches),
				})
			},
			Recover: recoverRefocus(deps, log),
		},
		{
			Type:           schemas.ActionClickTemplate,
			RequiredParams: []string{"template"},
			HasVerifier:    true,
			HasRecovery:    true,
			Perform: func(ctx context.Context, params schemas.Parameters) error {
				name := params.String("template", "")
				match, err := findTemplate(ctx, deps, name)
				if err != nil {
					return err
				}
				if !match.Found {
					return fmt.Errorf("%w: template %q not on screen (confidence %.2f)", schemas.ErrActionFailure, name, match.Confidence)
				}
				return deps.Pointer.ClickAt(ctx, match.Global.X, match.Global.Y)
			},
			Verify: func(ctx context.Context, params schemas.Parameters) schemas.VerifyOutcome {
				// The click is confirmed through its visible consequence: a
				// follow-up template that should appear afterwards.
				name := params.String("verify_template", "")
				if name == "" {
					return schemas.Verified("no post-condition template declared")
				}
				match, err := findTemplate(ctx, deps, name)
				if err != nil {
					return schemas.Unverified(err.Error())
				}
				if !match.Found {
					return schemas.Unverified(fmt.Sprintf("expected template %q not on screen (confidence %.2f)", name, match.Confidence))
				}
				return schemas.VerifiedWithDetail("post-condition template found", map[string]interface{}{
					"confidence": match.Confidence,
					"x":          match.Global.X,
					"y":          match.Global.Y,
				})
			},
			Recover: recoverRefocus(deps, log),
		},
		{
			Type:           schemas.ActionTypeText,
			RequiredParams: []string{"text"},
			HasVerifier:    deps.Text != nil,
			HasRecovery:    true,
			Perform: func(ctx context.Context, params schemas.Parameters) error {
				return deps.Pointer.Type(ctx, params.String("text", ""))
			},
			Verify: textVerifier(deps),
			Recover: func(ctx context.Context, failure string, attempt, maxAttempts int, params schemas.Parameters) (bool, string) {
				// Re-click the input field if the handler knows where it is.
				if name := params.String("field_template", ""); name != "" {
					if match, err := findTemplate(ctx, deps, name); err == nil && match.Found {
						if err := deps.Pointer.ClickAt(ctx, match.Global.X, match.Global.Y); err == nil {
							return true, "re-focused input field"
						}
					}
				}
				return attempt < maxAttempts, "no recovery action available"
			},
		},
	}

	if deps.Text != nil {
		registrations = append(registrations, Registration{
			Type:           schemas.ActionVerifyText,
			RequiredParams: []string{"text"},
			HasVerifier:    true,
			// A pure check: perform is a no-op and verification carries the
			// whole contract.
			Perform: func(ctx context.Context, params schemas.Parameters) error { return nil },
			Verify:  textVerifier(deps),
		})
	} else {
		log.Warn("Text recognizer not configured; text verification actions unavailable",
			zap.String("action", string(schemas.ActionVerifyText)))
	}

	for _, reg := range registrations {
		if err := registry.Register(reg); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// recoverRefocus is the shared recovery for window-level actions: bring the
// window back to front and let the executor try again.
func recoverRefocus(deps Deps, log *zap.Logger) RecoverFunc {
	return func(ctx context.Context, failure string, attempt, maxAttempts int, params schemas.Parameters) (bool, string) {
		if err := deps.Window.Focus(ctx); err != nil {
			log.Warn("Recovery focus failed", zap.Error(err))
			return attempt < maxAttempts, fmt.Sprintf("focus failed: %v", err)
		}
		if err := deps.sleep(ctx, settleAfterRecovery); err != nil {
			return false, err.Error()
		}
		return true, "window re-focused"
	}
}

const settleAfterRecovery = 300 * time.Millisecond

// findTemplate captures a fresh screenshot and matches the named template
// against the full screen.
func findTemplate(ctx context.Context, deps Deps, name string) (schemas.MatchResult, error) {
	tpl, err := deps.Templates.Load(name, schemas.CornerNone)
	if err != nil {
		return schemas.MatchResult{}, err
	}
	img, err := deps.Capture.Capture(ctx)
	if err != nil {
		return schemas.MatchResult{}, schemas.CaptureError(err)
	}
	shot := vision.ToGray(img)
	region := schemas.Rect{Width: shot.Bounds().Dx(), Height: shot.Bounds().Dy()}
	return vision.MatchInRegion(shot, tpl, region, deps.Threshold), nil
}

// textVerifier builds a VerifyFunc that reads the screen through the OCR
// capability and compares against the expected text. Returns nil when no
// recognizer is configured, which keeps the capability flags honest.
func textVerifier(deps Deps) VerifyFunc {
	if deps.Text == nil {
		return nil
	}
	return func(ctx context.Context, params schemas.Parameters) schemas.VerifyOutcome {
		expected := params.String("text", "")
		img, err := deps.Capture.Capture(ctx)
		if err != nil {
			return schemas.Unverified(schemas.CaptureError(err).Error())
		}

		region := schemas.Rect{
			X:      int(params.Float("region_x", 0)),
			Y:      int(params.Float("region_y", 0)),
			Width:  int(params.Float("region_width", float64(img.Bounds().Dx()))),
			Height: int(params.Float("region_height", float64(img.Bounds().Dy()))),
		}
		recognized, err := deps.Text.Recognize(ctx, img, region)
		if err != nil {
			return schemas.Unverified(fmt.Sprintf("text recognition failed: %v", err))
		}

		score := deps.Text.Similarity(expected, recognized)
		detail := map[string]interface{}{"recognized": recognized, "similarity": score}
		if score < textMatchThreshold {
			return schemas.VerifyOutcome{
				OK:      false,
				Message: fmt.Sprintf("text mismatch: similarity %.2f below %.2f", score, textMatchThreshold),
				Detail:  detail,
			}
		}
		return schemas.VerifiedWithDetail("expected text on screen", detail)
	}
}
