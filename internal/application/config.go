package application

import (
	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/internal/domain"
)

// AggregationConfig is the YAML document describing one aggregation run:
// the per-group curves to merge and the curve units to compute from them.
// Use AggregationConfig as the entry point when loading runs from files.
type AggregationConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across releases.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the run.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Groups holds every group's reported curve and class counts.
	Groups []domain.GroupCurve `yaml:"groups" validate:"required,min=1,dive"`
	// Curves lists the units to execute against Groups. Every unit sees
	// the same groups and the units run independently of each other.
	Curves []CurveConfig `yaml:"curves" validate:"required,min=1,dive"`
}

// Metadata provides descriptive information about an aggregation run
// to support organization and discovery.
type Metadata struct {
	// Name is the human-readable identifier for this run. It is reported
	// as the configuration name in logs and traces.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides a detailed explanation of the run's purpose.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags are categorical labels for filtering and grouping runs.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs for integration with external
	// systems.
	Labels map[string]string `yaml:"labels" validate:"max=50"`
}

// CurveConfig declares a single unit within an aggregation run.
type CurveConfig struct {
	// ID is the unique identifier for this unit within the run. It keys
	// the unit's result in the Report.
	ID string `yaml:"id" validate:"required,unitid,min=1,max=100"`
	// Type names a factory registered with the UnitRegistry, such as
	// partial_cm, roc_curve or precision_recall_curve.
	Type string `yaml:"type" validate:"required,min=1,max=100"`
	// Parameters contains type-specific configuration as flexible YAML
	// that is validated according to the unit type.
	Parameters yaml.Node `yaml:"parameters,omitempty"`
}

// GroupsDocument is the subset of an AggregationConfig needed to build a
// single curve. Any other top-level keys are ignored, so a full
// AggregationConfig is also a valid GroupsDocument.
type GroupsDocument struct {
	Groups []domain.GroupCurve `yaml:"groups" validate:"required,min=1,dive"`
}
