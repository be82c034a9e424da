// Package units provides the aggregation units that implement the
// ports.Unit interface. Each unit reads per-group curves from the State,
// runs one of the curve builders and stores its result under its own key.
package units

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/internal/curves"
	"github.com/ahrav/rocagg/internal/domain"
)

// Unit type names as they appear in configuration documents.
const (
	TypePartialCM            = "partial_cm"
	TypeROCCurve             = "roc_curve"
	TypePrecisionRecallCurve = "precision_recall_curve"
)

// Common errors returned by aggregation units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrGroupsNotFound is returned when the State carries no group curves.
	ErrGroupsNotFound = errors.New("group curves not found in state")

	// ErrTooFewGroups is returned when fewer groups are present than the
	// unit's MinGroups setting requires.
	ErrTooFewGroups = errors.New("too few groups")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// CurveConfig holds the settings every aggregation unit accepts.
type CurveConfig struct {
	// ValidateInput runs curves.ValidateGroups on the groups before
	// aggregating. Leave it off for trusted inputs.
	ValidateInput bool `yaml:"validate_input" json:"validate_input"`

	// MinGroups is the smallest number of groups the unit will aggregate.
	MinGroups int `yaml:"min_groups" json:"min_groups" validate:"min=1"`
}

// DefaultCurveConfig returns the shared defaults: no validation gate and
// at least one group.
func DefaultCurveConfig() CurveConfig {
	return CurveConfig{
		ValidateInput: false,
		MinGroups:     1,
	}
}

// loadGroups reads the group curves from state and applies the checks
// configured in cfg.
func loadGroups(ctx context.Context, state domain.State, cfg CurveConfig) ([]domain.GroupCurve, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups, ok := domain.Get(state, domain.KeyGroups)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrGroupsNotFound,
			domain.NewStateError(domain.KeyGroups.Name(), "get", domain.ErrKeyNotFound))
	}

	if len(groups) < cfg.MinGroups {
		return nil, fmt.Errorf("%w: have %d, need at least %d", ErrTooFewGroups, len(groups), cfg.MinGroups)
	}

	if cfg.ValidateInput {
		if err := curves.ValidateGroups(groups); err != nil {
			return nil, fmt.Errorf("input validation failed: %w", err)
		}
	}

	return groups, nil
}

// decodeConfig overlays a decoded parameter map onto defaults.
// It round-trips through YAML so parameters use the same field names as
// configuration documents.
func decodeConfig[T any](config map[string]any, defaults T) (T, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return defaults, fmt.Errorf("marshal config: %w", err)
	}

	cfg := defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaults, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// unmarshalParams decodes a YAML parameters node over defaults and
// validates the result.
func unmarshalParams[T any](params yaml.Node, defaults T) (T, error) {
	cfg := defaults
	if params.Kind != 0 {
		if err := params.Decode(&cfg); err != nil {
			return defaults, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return defaults, fmt.Errorf("parameter validation failed: %w", err)
	}
	return cfg, nil
}

// aggregatorOrDefault falls back to the package-level curve builders.
func aggregatorOrDefault(agg domain.CurveAggregator) domain.CurveAggregator {
	if agg == nil {
		return curves.Aggregator{}
	}
	return agg
}
