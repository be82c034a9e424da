package application

import (
	"context"
	"strings"
	"testing"
)

// FuzzConfigLoader_LoadFromReader feeds arbitrary documents to the loader.
// Loading may fail but must never panic, and a successful load must yield
// a plan with at least one group and one unit.
func FuzzConfigLoader_LoadFromReader(f *testing.F) {
	testcases := []string{
		sampleConfig,

		// Invalid YAML syntax.
		`version: "1.0.0
metadata:
  name: test"`,

		// Missing required fields.
		`metadata:
  name: "test"
curves: []`,

		// Invalid structure.
		`version: 1
metadata: "invalid"
groups: "should be array"
curves: null`,

		// Mismatched array lengths are a merge-time error, not a load error.
		`version: "1.0.0"
metadata:
  name: shapes
groups:
  - fpr: [0, 1]
    tpr: [1]
    thresholds: [0.5, 0.1]
    negative_count: 1
    total_count: 2
curves:
  - id: cm
    type: partial_cm`,

		// Non-finite values.
		`version: "1.0.0"
metadata:
  name: inf
groups:
  - fpr: [.nan]
    tpr: [.inf]
    thresholds: [-.inf]
    negative_count: 0
    total_count: 0
curves:
  - id: roc
    type: roc_curve`,

		"",
		"---\n---\n",
		"{}",
	}
	for _, tc := range testcases {
		f.Add(tc)
	}

	registry := NewDefaultUnitRegistry()

	f.Fuzz(func(t *testing.T, doc string) {
		loader, err := NewConfigLoader(registry)
		if err != nil {
			t.Fatalf("failed to create loader: %v", err)
		}

		plan, err := loader.LoadFromReader(context.Background(), strings.NewReader(doc))
		if err != nil {
			return
		}
		if len(plan.Groups) == 0 || len(plan.Units) == 0 {
			t.Fatalf("loaded plan without groups or units from %q", doc)
		}
	})
}
