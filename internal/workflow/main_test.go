// File: internal/workflow/main_test.go
package workflow

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no goroutines leak across the engine tests; the engine
// is strictly sequential and must not leave anything running.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
