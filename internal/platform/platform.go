// File: internal/platform/platform.go
// Description: The seam between the automation core and the operating
// system. OS specific backends (screenshot grabbing, window management,
// synthetic input, OCR) register a factory here, typically from a build
// tagged file; the core itself never touches OS APIs directly.
package platform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

// Capabilities is the full set of OS facilities the engine consumes.
type Capabilities struct {
	Screen  schemas.ScreenCapture
	Windows schemas.WindowSystem
	Input   schemas.InputDriver
	// Text is optional; text verification actions are unavailable without it.
	Text schemas.TextRecognizer
}

// Factory builds the platform capabilities for the current OS.
type Factory func(logger *zap.Logger) (*Capabilities, error)

var factory Factory

// Register installs the backend factory. Called from an init function in
// the OS specific implementation package.
func Register(f Factory) {
	factory = f
}

// New returns the registered backend's capabilities.
func New(logger *zap.Logger) (*Capabilities, error) {
	if factory == nil {
		return nil, fmt.Errorf("no platform backend compiled into this build; see internal/platform")
	}
	return factory(logger)
}
