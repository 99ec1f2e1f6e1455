// File: internal/window/controller.go
// Description: Thin facade over the OS window and process capability, plus
// the application readiness sequence that must succeed before any objective
// executes. Readiness failure is the single fatal case of a run: nothing can
// be verified against an application that is not in a known base state.
package window

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/config"
)

// settleDelay is the pause between a window command and the next state
// check, giving the window manager time to apply it.
const settleDelay = 500 * time.Millisecond

// Controller wraps a WindowSystem for one designated application window.
type Controller struct {
	sys      schemas.WindowSystem
	detector schemas.StateDetector
	app      config.AppConfig
	retries  int
	log      *zap.Logger

	handle schemas.WindowHandle
	// sleep is swappable so tests do not wait out real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewController creates a controller for the configured application.
func NewController(
	sys schemas.WindowSystem,
	detector schemas.StateDetector,
	app config.AppConfig,
	maxRetries int,
	logger *zap.Logger,
) (*Controller, error) {
	if sys == nil || detector == nil {
		return nil, fmt.Errorf("cannot initialize window controller with nil dependencies")
	}
	return &Controller{
		sys:      sys,
		detector: detector,
		app:      app,
		retries:  maxRetries,
		log:      logger.Named("window"),
		sleep:    sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Handle returns the resolved window handle. Valid after EnsureReady.
func (c *Controller) Handle() schemas.WindowHandle { return c.handle }

// EnsureReady drives the startup sequence: process running, window handle
// resolved, window focused and maximized, state visually verified. Any
// unrecoverable step failure is returned as a ReadinessError.
func (c *Controller) EnsureReady(ctx context.Context) error {
	c.log.Info("Starting application readiness sequence",
		zap.String("app", c.app.Name),
		zap.String("process", c.app.ProcessName))

	if err := c.EnsureOpen(ctx); err != nil {
		return schemas.ReadinessError("ensure application open", err)
	}

	// Focus and maximize failures here are soft; verification decides.
	if err := c.Focus(ctx); err != nil {
		c.log.Warn("Could not bring window to foreground, continuing", zap.Error(err))
	}
	if err := c.Maximize(ctx); err != nil {
		c.log.Warn("Initial maximize attempt failed, continuing to verification", zap.Error(err))
	}

	if err := c.verifyState(ctx); err != nil {
		return schemas.ReadinessError("verify window state", err)
	}

	c.log.Info("Application ready: open, foreground, maximized")
	return nil
}

// EnsureOpen checks the process is running, launching it if a binary path
// is configured, and resolves the window handle.
func (c *Controller) EnsureOpen(ctx context.Context) error {
	running, err := c.sys.IsRunning(ctx, c.app.ProcessName)
	if err != nil {
		return fmt.Errorf("process check failed: %w", err)
	}

	if !running {
		if c.app.Path == "" {
			return fmt.Errorf("process %q is not running and no launch path is configured", c.app.ProcessName)
		}
		for attempt := 1; attempt <= c.retries; attempt++ {
			c.log.Info("Launching application",
				zap.String("path", c.app.Path),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.retries))
			pid, err := c.sys.Launch(ctx, c.app.Path)
			if err != nil {
				c.log.Warn("Launch attempt failed", zap.Error(err))
			} else {
				c.log.Info("Application launched", zap.Int("pid", pid))
				break
			}
			if attempt == c.retries {
				return fmt.Errorf("failed to launch %q after %d attempts: %w", c.app.Path, c.retries, err)
			}
			if err := c.sleep(ctx, settleDelay); err != nil {
				return err
			}
		}
		if err := c.sleep(ctx, settleDelay); err != nil {
			return err
		}
	}

	handle, found, err := c.sys.FindWindow(ctx, c.app.WindowTitle)
	if err != nil {
		return fmt.Errorf("window lookup failed: %w", err)
	}
	if !found {
		// The title likely does not match the live window.
		return fmt.Errorf("no window matching title %q", c.app.WindowTitle)
	}
	c.handle = handle
	return nil
}

// verifyState confirms the window is maximized, preferring the visual
// corner check and falling back to the OS-level window state when the
// visual check does not pass.
func (c *Controller) verifyState(ctx context.Context) error {
	detection, err := c.detector.Detect(ctx, schemas.TargetMaximized)
	if err == nil && detection.Verdict {
		c.log.Info("Visual maximized check passed")
		return nil
	}
	if err != nil {
		c.log.Warn("Visual check failed to run, falling back to window state", zap.Error(err))
	} else {
		c.log.Info("Visual maximized check negative, falling back to window state",
			zap.Any("missing_corners", detection.MissingCorners()))
	}

	if ok, err := c.isMaximizedAndForeground(ctx); err == nil && ok {
		c.log.Info("Window state confirmed maximized and foreground by OS check")
		return nil
	}

	// Retry the maximize step a bounded number of times before giving up.
	for attempt := 1; attempt <= c.retries; attempt++ {
		c.log.Info("Retrying focus and maximize",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.retries))
		if err := c.Focus(ctx); err != nil {
			c.log.Warn("Focus retry failed", zap.Error(err))
		}
		if err := c.Maximize(ctx); err != nil {
			c.log.Warn("Maximize retry failed", zap.Error(err))
		}
		if err := c.sleep(ctx, settleDelay); err != nil {
			return err
		}
		if ok, err := c.isMaximizedAndForeground(ctx); err == nil && ok {
			c.log.Info("Window maximized and foreground after retry", zap.Int("attempt", attempt))
			return nil
		}
	}
	return fmt.Errorf("window did not reach maximized foreground state after %d attempts", c.retries)
}

func (c *Controller) isMaximizedAndForeground(ctx context.Context) (bool, error) {
	maximized, err := c.sys.IsMaximized(ctx, c.handle)
	if err != nil {
		return false, err
	}
	foreground, err := c.sys.IsForeground(ctx, c.handle)
	if err != nil {
		return false, err
	}
	return maximized && foreground, nil
}

// Maximize sends a maximize command to the designated window.
func (c *Controller) Maximize(ctx context.Context) error {
	return c.sys.Maximize(ctx, c.handle)
}

// Focus brings the designated window to the foreground.
func (c *Controller) Focus(ctx context.Context) error {
	return c.sys.Focus(ctx, c.handle)
}

// IsMaximized exposes the OS-level maximized state for verifiers.
func (c *Controller) IsMaximized(ctx context.Context) (bool, error) {
	return c.sys.IsMaximized(ctx, c.handle)
}

// IsForeground exposes the OS-level foreground state for verifiers.
func (c *Controller) IsForeground(ctx context.Context) (bool, error) {
	return c.sys.IsForeground(ctx, c.handle)
}

// IsRunning reports whether the configured process is alive.
func (c *Controller) IsRunning(ctx context.Context) (bool, error) {
	return c.sys.IsRunning(ctx, c.app.ProcessName)
}
