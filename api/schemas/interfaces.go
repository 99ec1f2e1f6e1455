// File: api/schemas/interfaces.go
// Description: Capability interfaces consumed by the core. The OS specific
// implementations (screenshot grabbing, window management, synthetic input,
// OCR) live behind these so the engine never touches ambient global state
// and tests can substitute fakes.
package schemas

import (
	"context"
	"image"
	"time"
)

// ScreenCapture grabs the current full-screen raster on demand. It is
// stateless; every call must return a fresh capture.
type ScreenCapture interface {
	Capture(ctx context.Context) (image.Image, error)
}

// WindowHandle identifies one top-level window to the WindowSystem.
type WindowHandle uintptr

// WindowSystem is the facade over OS window and process primitives. The core
// treats failures from this capability as recoverable errors to be retried,
// not as fatal crashes.
type WindowSystem interface {
	// Launch starts the application binary and returns its process id.
	Launch(ctx context.Context, path string) (int, error)
	// IsRunning reports whether a process with the given name exists.
	IsRunning(ctx context.Context, processName string) (bool, error)
	// FindWindow resolves a top-level window by (partial) title.
	FindWindow(ctx context.Context, title string) (WindowHandle, bool, error)
	Maximize(ctx context.Context, handle WindowHandle) error
	Focus(ctx context.Context, handle WindowHandle) error
	// IsMaximized and IsForeground back the non-visual fallback checks used
	// when the corner template set is unavailable.
	IsMaximized(ctx context.Context, handle WindowHandle) (bool, error)
	IsForeground(ctx context.Context, handle WindowHandle) (bool, error)
}

// InputDriver dispatches synthetic pointer and keyboard events. The pointer
// trajectory logic in internal/input composes these low-level primitives.
type InputDriver interface {
	MoveMouse(ctx context.Context, x, y int) error
	Click(ctx context.Context, x, y int) error
	TypeText(ctx context.Context, text string) error
	// Sleep pauses between synthetic events, respecting cancellation.
	Sleep(ctx context.Context, d time.Duration) error
}

// TextRecognizer extracts text from a screen region. OCR internals are an
// external concern; verify_text only needs the recognized string and a
// similarity score against the expectation.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image, region Rect) (string, error)
	Similarity(a, b string) float64
}

// StateDetector answers whether the target window is open or maximized from
// a live screenshot. Implemented by the corner detector in internal/vision.
type StateDetector interface {
	Detect(ctx context.Context, target DetectionTarget) (DetectionResult, error)
}

// RunStore persists finished workflow reports. Persistence is best-effort;
// the engine logs store failures and keeps going.
type RunStore interface {
	SaveReport(ctx context.Context, report *WorkflowReport) error
	Close()
}
