package units

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/internal/domain"
	"github.com/ahrav/rocagg/internal/ports"
)

var _ ports.Unit = (*PrecisionRecallUnit)(nil)

// PrecisionRecallUnit builds the dataset-wide precision-recall curve from
// the per-group curves in the State, over an ascending threshold grid.
// Thresholds where nothing is predicted positive get precision 1.
type PrecisionRecallUnit struct {
	name       string
	config     PrecisionRecallConfig
	aggregator domain.CurveAggregator
}

// PrecisionRecallConfig holds the precision-recall unit's settings.
type PrecisionRecallConfig struct {
	CurveConfig `yaml:",inline"`
}

// NewPrecisionRecallUnit creates a PrecisionRecallUnit with a validated
// configuration. A nil aggregator selects the built-in curve builders.
func NewPrecisionRecallUnit(
	name string,
	config PrecisionRecallConfig,
	aggregator domain.CurveAggregator,
) (*PrecisionRecallUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &PrecisionRecallUnit{
		name:       name,
		config:     config,
		aggregator: aggregatorOrDefault(aggregator),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *PrecisionRecallUnit) Name() string { return u.name }

// Execute builds the precision-recall curve and stores it under
// domain.KeyPR. It fails with domain.ErrDegenerateDataset when the pooled
// data has no positives.
func (u *PrecisionRecallUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	groups, err := loadGroups(ctx, state, u.config.CurveConfig)
	if err != nil {
		return state, err
	}

	pr, err := u.aggregator.PrecisionRecallCurve(groups)
	if err != nil {
		return state, fmt.Errorf("precision-recall curve: %w", err)
	}

	return domain.With(state, domain.KeyPR, &pr), nil
}

// Validate verifies the unit is properly configured.
func (u *PrecisionRecallUnit) Validate() error {
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
func (u *PrecisionRecallUnit) UnmarshalParameters(params yaml.Node) error {
	cfg, err := unmarshalParams(params, DefaultPrecisionRecallConfig())
	if err != nil {
		return err
	}
	u.config = cfg
	return nil
}

// DefaultPrecisionRecallConfig returns the shared curve defaults.
func DefaultPrecisionRecallConfig() PrecisionRecallConfig {
	return PrecisionRecallConfig{CurveConfig: DefaultCurveConfig()}
}

// NewPrecisionRecallFromConfig creates a PrecisionRecallUnit from a
// configuration map.
func NewPrecisionRecallFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultPrecisionRecallConfig())
	if err != nil {
		return nil, err
	}
	return NewPrecisionRecallUnit(id, cfg, nil)
}
