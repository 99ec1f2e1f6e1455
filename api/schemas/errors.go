// File: api/schemas/errors.go
// Description: Error taxonomy for the automation core. Detection and action
// level errors are absorbed by the executor and turned into attempt log
// entries; only ErrReadiness is allowed to propagate and abort a run.
package schemas

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateMissing marks a template asset that could not be found or
	// decoded. Fatal to the specific detection path that needs it.
	ErrTemplateMissing = errors.New("template missing")

	// ErrCapture marks a failed screen capture. Treated as a retryable
	// instruction failure.
	ErrCapture = errors.New("screen capture failed")

	// ErrActionFailure marks a handler perform or verify failure. Retryable
	// up to the configured attempt budget.
	ErrActionFailure = errors.New("action failed")

	// ErrReadiness marks the one fatal case: the target application cannot
	// reach a known base state, so no instruction can be verified against it.
	ErrReadiness = errors.New("application readiness failure")

	// ErrUnsupportedObjective marks an objective type outside the registry.
	// Non-fatal; the objective is skipped with a warning.
	ErrUnsupportedObjective = errors.New("unsupported objective type")
)

// TemplateMissingError wraps ErrTemplateMissing with the asset identity.
func TemplateMissingError(name, path string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s (%s): %v", ErrTemplateMissing, name, path, cause)
	}
	return fmt.Errorf("%w: %s (%s)", ErrTemplateMissing, name, path)
}

// CaptureError wraps ErrCapture with the underlying cause.
func CaptureError(cause error) error {
	return fmt.Errorf("%w: %v", ErrCapture, cause)
}

// ReadinessError wraps ErrReadiness with the stage that failed.
func ReadinessError(stage string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadiness, stage, cause)
	}
	return fmt.Errorf("%w: %s", ErrReadiness, stage)
}
