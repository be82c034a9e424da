package units

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/internal/domain"
	"github.com/ahrav/rocagg/internal/ports"
)

var _ ports.Unit = (*ROCCurveUnit)(nil)

// ROCCurveUnit builds the dataset-wide ROC curve from the per-group curves
// in the State. The curve runs over a descending threshold grid and its
// rates are normalized by the summed class counts of all groups.
type ROCCurveUnit struct {
	name       string
	config     ROCCurveConfig
	aggregator domain.CurveAggregator
}

// ROCCurveConfig holds the ROC unit's settings.
type ROCCurveConfig struct {
	CurveConfig `yaml:",inline"`
}

// NewROCCurveUnit creates a ROCCurveUnit with a validated configuration.
// A nil aggregator selects the built-in curve builders.
func NewROCCurveUnit(name string, config ROCCurveConfig, aggregator domain.CurveAggregator) (*ROCCurveUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &ROCCurveUnit{
		name:       name,
		config:     config,
		aggregator: aggregatorOrDefault(aggregator),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *ROCCurveUnit) Name() string { return u.name }

// Execute builds the ROC curve and stores it under domain.KeyROC.
// It fails with domain.ErrDegenerateDataset when the pooled data has no
// negatives or no positives.
func (u *ROCCurveUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	groups, err := loadGroups(ctx, state, u.config.CurveConfig)
	if err != nil {
		return state, err
	}

	roc, err := u.aggregator.ROCCurve(groups)
	if err != nil {
		return state, fmt.Errorf("roc curve: %w", err)
	}

	return domain.With(state, domain.KeyROC, &roc), nil
}

// Validate verifies the unit is properly configured.
func (u *ROCCurveUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if u.aggregator == nil {
		return fmt.Errorf("aggregator is not set")
	}
	return nil
}

// UnmarshalParameters decodes YAML parameters over the defaults and
// replaces the unit's configuration.
func (u *ROCCurveUnit) UnmarshalParameters(params yaml.Node) error {
	cfg, err := unmarshalParams(params, DefaultROCCurveConfig())
	if err != nil {
		return err
	}
	u.config = cfg
	return nil
}

// DefaultROCCurveConfig returns the shared curve defaults.
func DefaultROCCurveConfig() ROCCurveConfig {
	return ROCCurveConfig{CurveConfig: DefaultCurveConfig()}
}

// NewROCCurveFromConfig creates a ROCCurveUnit from a configuration map.
func NewROCCurveFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultROCCurveConfig())
	if err != nil {
		return nil, err
	}
	return NewROCCurveUnit(id, cfg, nil)
}
