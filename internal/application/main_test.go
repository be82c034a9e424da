package application

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the package if any test leaves goroutines behind, which
// catches runner paths that return before every unit has finished.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
