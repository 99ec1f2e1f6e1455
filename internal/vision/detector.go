// File: internal/vision/detector.go
// Description: Corner based visual state detection. Composes ScreenCapture,
// the template store and the region matcher to answer "is the window open?"
// and "is the window maximized?" from a live screenshot.
package vision

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/config"
)

// requiredCorners is the corner set that must be fully present for strict
// maximization checks. bottom_left participates when configured but its
// absence alone does not degrade the detector.
var requiredCorners = []schemas.Corner{
	schemas.CornerTopLeft,
	schemas.CornerTopRight,
	schemas.CornerBottomRight,
}

// CornerStateDetector decides window state from template matches in fixed
// size corner regions. Every Detect call captures a fresh screenshot and
// recomputes region geometry; nothing is reused across calls because the
// screen may have changed in between.
type CornerStateDetector struct {
	capture    schemas.ScreenCapture
	log        *zap.Logger
	threshold  float64
	regionSize int

	open     *Template
	corners  []*Template
	degraded bool
}

// NewCornerStateDetector loads the configured templates and builds the
// detector. The "open" template is mandatory; with it present the detector
// can always fall back to the legacy single-template check. An incomplete
// corner set puts the detector into degraded mode, which is logged loudly
// rather than silently defaulting.
func NewCornerStateDetector(
	capture schemas.ScreenCapture,
	store *TemplateStore,
	cfg config.DetectorConfig,
	logger *zap.Logger,
) (*CornerStateDetector, error) {
	if capture == nil || store == nil {
		return nil, fmt.Errorf("cannot initialize detector with nil dependencies")
	}

	d := &CornerStateDetector{
		capture:    capture,
		log:        logger.Named("detector"),
		threshold:  cfg.Threshold,
		regionSize: cfg.RegionSize,
	}

	open, err := store.Load(cfg.OpenTemplate, schemas.CornerNone)
	if err != nil {
		// Without the open template there is no fallback path at all.
		return nil, err
	}
	d.open = open

	var missing []schemas.Corner
	for _, corner := range []schemas.Corner{
		schemas.CornerTopLeft,
		schemas.CornerTopRight,
		schemas.CornerBottomRight,
		schemas.CornerBottomLeft,
	} {
		name, configured := cfg.CornerTemplates[string(corner)]
		if !configured {
			if isRequired(corner) {
				missing = append(missing, corner)
			}
			continue
		}
		tpl, err := store.Load(name, corner)
		if err != nil {
			d.log.Warn("Corner template failed to load",
				zap.String("corner", string(corner)),
				zap.String("template", name),
				zap.Error(err))
			if isRequired(corner) {
				missing = append(missing, corner)
			}
			continue
		}
		d.corners = append(d.corners, tpl)
	}

	if len(missing) > 0 {
		d.degraded = true
		d.corners = nil
		cornerNames := make([]string, len(missing))
		for i, c := range missing {
			cornerNames[i] = string(c)
		}
		d.log.Warn("Corner template set incomplete; maximization checks run in degraded single-template mode",
			zap.Strings("missing_corners", cornerNames))
	}

	return d, nil
}

func isRequired(c schemas.Corner) bool {
	for _, r := range requiredCorners {
		if r == c {
			return true
		}
	}
	return false
}

// Degraded reports whether the detector fell back to the legacy
// single-template check for maximization.
func (d *CornerStateDetector) Degraded() bool { return d.degraded }

// Detect captures the screen and evaluates the requested target state.
// A negative verdict is not an error; the error return covers capture
// failures only.
func (d *CornerStateDetector) Detect(ctx context.Context, target schemas.DetectionTarget) (schemas.DetectionResult, error) {
	result := schemas.DetectionResult{Target: target}

	img, err := d.capture.Capture(ctx)
	if err != nil {
		return result, schemas.CaptureError(err)
	}
	shot := ToGray(img)
	width, height := shot.Bounds().Dx(), shot.Bounds().Dy()

	if target == schemas.TargetOpen || d.degraded {
		if target == schemas.TargetMaximized {
			result.Degraded = true
			d.log.Warn("Maximization check running in degraded mode; using single open template")
		}
		// Single-point check: an unconstrained full-screen search. "Open"
		// only distinguishes "not running" from "running in some state", so
		// corner discipline is unnecessary here.
		match := MatchInRegion(shot, d.open, schemas.Rect{Width: width, Height: height}, d.threshold)
		result.Matches = append(result.Matches, match)
		result.Verdict = match.Found
		d.log.Debug("Single-template detection finished",
			zap.String("target", string(target)),
			zap.Bool("verdict", result.Verdict),
			zap.Float64("confidence", match.Confidence))
		return result, nil
	}

	// Strict corner discipline: the window counts as maximized iff every
	// configured corner matches. One missing corner is decisive, so every
	// corner is evaluated and reported rather than short-circuiting.
	result.Verdict = true
	for _, tpl := range d.corners {
		region := cornerRegion(tpl.Corner, width, height, d.regionSize)
		match := MatchInRegion(shot, tpl, region, d.threshold)
		result.Matches = append(result.Matches, match)
		if !match.Found {
			result.Verdict = false
		}
	}

	if result.Verdict {
		d.log.Debug("All corner templates matched; window appears maximized")
	} else {
		missing := result.MissingCorners()
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = string(c)
		}
		d.log.Debug("Window not maximized", zap.Strings("missing_corners", names))
	}
	return result, nil
}

// cornerRegion derives the fixed size search rectangle for a corner from
// the current screen dimensions. Recomputed per call; screen size may change
// between detections.
func cornerRegion(corner schemas.Corner, width, height, size int) schemas.Rect {
	switch corner {
	case schemas.CornerTopLeft:
		return schemas.Rect{X: 0, Y: 0, Width: size, Height: size}
	case schemas.CornerTopRight:
		return schemas.Rect{X: width - size, Y: 0, Width: size, Height: size}
	case schemas.CornerBottomRight:
		return schemas.Rect{X: width - size, Y: height - size, Width: size, Height: size}
	case schemas.CornerBottomLeft:
		return schemas.Rect{X: 0, Y: height - size, Width: size, Height: size}
	default:
		return schemas.Rect{Width: width, Height: height}
	}
}
