package units

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/internal/domain"
	"github.com/ahrav/rocagg/internal/ports"
)

var _ ports.Unit = (*PartialCMUnit)(nil)

// PartialCMUnit merges the per-group curves in the State into one
// dataset-wide partial confusion matrix.
//
// Every group's rates are turned back into counts, each group is read as a
// step function on the union of all thresholds, and the counts are summed
// per threshold. The result is exact: it equals the matrix obtained by
// pooling every group's raw scores.
//
// Concurrency: Stateless and thread-safe for concurrent execution.
type PartialCMUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated configuration parameters.
	config PartialCMConfig
	// aggregator performs the merge.
	aggregator domain.CurveAggregator
}

// PartialCMConfig controls the merge direction and input checks.
type PartialCMConfig struct {
	CurveConfig `yaml:",inline"`

	// Descending sorts the output grid from highest to lowest threshold.
	Descending bool `yaml:"descending" json:"descending"`
}

// Order maps the Descending flag onto a domain.Order.
func (c PartialCMConfig) Order() domain.Order { return domain.OrderFromDescending(c.Descending) }

// NewPartialCMUnit creates a PartialCMUnit with a validated configuration.
// A nil aggregator selects the built-in curve builders.
//
// Returns ErrEmptyUnitName if name is empty, or a configuration validation
// error if constraints are violated.
func NewPartialCMUnit(name string, config PartialCMConfig, aggregator domain.CurveAggregator) (*PartialCMUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &PartialCMUnit{
		name:       name,
		config:     config,
		aggregator: aggregatorOrDefault(aggregator),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *PartialCMUnit) Name() string { return u.name }

// Execute merges the groups stored under domain.KeyGroups.
//
// Returns a new state containing domain.KeyPartialCM with the summed
// (FP, TP) rows, the unified grid, and the order they are sorted in.
//
// Errors:
//   - groups missing from state or fewer than MinGroups
//   - input validation failures when ValidateInput is set
//   - merge failures such as mismatched array lengths
func (u *PartialCMUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	groups, err := loadGroups(ctx, state, u.config.CurveConfig)
	if err != nil {
		return state, err
	}

	order := u.config.Order()
	matrix, grid, err := u.aggregator.PartialCM(groups, order)
	if err != nil {
		return state, fmt.Errorf("partial confusion matrix: %w", err)
	}

	result := &domain.PartialConfusion{Matrix: matrix, Grid: grid, Order: order}
	return domain.With(state, domain.KeyPartialCM, result), nil
}

// Validate verifies the unit is properly configured.
func (u *PartialCMUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if u.aggregator == nil {
		return fmt.Errorf("aggregator is not set")
	}
	return nil
}

// UnmarshalParameters decodes YAML parameters over the defaults and
// replaces the unit's configuration. The configuration is unchanged on
// error.
func (u *PartialCMUnit) UnmarshalParameters(params yaml.Node) error {
	cfg, err := unmarshalParams(params, DefaultPartialCMConfig())
	if err != nil {
		return err
	}
	u.config = cfg
	return nil
}

// DefaultPartialCMConfig returns the defaults: ascending grid, no
// validation gate, at least one group.
func DefaultPartialCMConfig() PartialCMConfig {
	return PartialCMConfig{
		CurveConfig: DefaultCurveConfig(),
		Descending:  false,
	}
}

// NewPartialCMFromConfig creates a PartialCMUnit from a configuration map.
// This is the boundary adapter for YAML/JSON configuration.
func NewPartialCMFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultPartialCMConfig())
	if err != nil {
		return nil, err
	}
	return NewPartialCMUnit(id, cfg, nil)
}
