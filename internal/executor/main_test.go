// File: internal/executor/main_test.go
package executor

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies the retry protocol leaves no goroutines behind, panics
// included.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
