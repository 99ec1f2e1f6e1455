// File: internal/input/pointer.go
// Description: Synthetic pointer movement with an eased, interpolated
// trajectory. Instant teleporting clicks confuse applications that track
// hover state, so moves are stretched over a short, bounded duration.
package input

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/config"
)

// Pointer drives the low-level InputDriver along smooth trajectories. It
// tracks the last commanded position; the OS cursor is assumed to stay
// where the driver last put it.
type Pointer struct {
	driver schemas.InputDriver
	cfg    config.InputConfig
	log    *zap.Logger
	pos    Vector2D
}

// NewPointer creates a pointer starting at the screen origin.
func NewPointer(driver schemas.InputDriver, cfg config.InputConfig, logger *zap.Logger) *Pointer {
	return &Pointer{
		driver: driver,
		cfg:    cfg,
		log:    logger.Named("pointer"),
	}
}

// easeInOutCubic provides a smooth acceleration and deceleration profile
// for movement.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// MoveTo moves the pointer to (x, y) along an eased straight-line path,
// pacing the steps so the whole move takes roughly cfg.MoveDuration.
func (p *Pointer) MoveTo(ctx context.Context, x, y int) error {
	target := Vector2D{X: float64(x), Y: float64(y)}
	start := p.pos

	if start.Dist(target) < 1.0 {
		p.pos = target
		return nil
	}

	steps := p.cfg.Steps
	if steps < 2 {
		steps = 2
	}
	stepDelay := p.cfg.MoveDuration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := easeInOutCubic(float64(i) / float64(steps))
		next := start.Lerp(target, t)
		if err := p.driver.MoveMouse(ctx, int(math.Round(next.X)), int(math.Round(next.Y))); err != nil {
			return err
		}
		p.pos = next
		if stepDelay > 0 {
			if err := p.driver.Sleep(ctx, stepDelay); err != nil {
				return err
			}
		}
	}

	p.pos = target
	p.log.Debug("Pointer moved", zap.Int("x", x), zap.Int("y", y))
	return nil
}

// ClickAt moves to the target point and clicks it.
func (p *Pointer) ClickAt(ctx context.Context, x, y int) error {
	if err := p.MoveTo(ctx, x, y); err != nil {
		return err
	}
	return p.driver.Click(ctx, x, y)
}

// Type forwards text entry to the driver. The target field must already be
// focused, typically by a preceding ClickAt.
func (p *Pointer) Type(ctx context.Context, text string) error {
	return p.driver.TypeText(ctx, text)
}

// Position returns the last commanded pointer position.
func (p *Pointer) Position() (int, int) {
	return int(math.Round(p.pos.X)), int(math.Round(p.pos.Y))
}
