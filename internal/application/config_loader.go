package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/internal/domain"
	"github.com/ahrav/rocagg/internal/ports"
)

// PlannedUnit is one instantiated curve unit of a Plan.
type PlannedUnit struct {
	// ID is the curve identifier from the configuration.
	ID string
	// Type is the registry type the unit was built from.
	Type string
	// Unit is the configured, validated unit.
	Unit ports.Unit
}

// Plan is a compiled aggregation run: validated group curves plus the
// units to execute over them.
// Plans returned by ConfigLoader are shared through its cache and must
// not be mutated.
type Plan struct {
	// Name is the configuration name reported in logs and traces.
	Name string
	// Groups holds the curves every unit aggregates.
	Groups []domain.GroupCurve
	// Units lists the units in configuration order.
	Units []PlannedUnit
}

// ConfigLoader provides YAML configuration parsing, validation, and caching
// for aggregation runs, transforming declarative documents into executable
// Plans.
// Use ConfigLoader to load runs from files or readers while benefiting
// from SHA256-based caching and comprehensive validation.
type ConfigLoader struct {
	// validator performs struct field validation and custom validation
	// rules for configurations and their nested components.
	validator *validator.Validate
	// unitRegistry provides factory methods for creating units
	// based on their type and configuration parameters.
	unitRegistry ports.UnitRegistry
	// cache stores compiled plans indexed by SHA256 hash of the
	// normalized configuration.
	cache map[string]*Plan
	// cacheMu provides thread-safe access to the cache map.
	cacheMu sync.RWMutex
	// sf prevents duplicate plan compilation when multiple goroutines
	// request the same configuration simultaneously.
	sf singleflight.Group
}

// NewConfigLoader creates a loader backed by unitRegistry with an empty
// cache. It returns an error if validator registration fails.
func NewConfigLoader(unitRegistry ports.UnitRegistry) (*ConfigLoader, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ConfigLoader{
		validator:    v,
		unitRegistry: unitRegistry,
		cache:        make(map[string]*Plan),
	}, nil
}

// LoadFromFile loads and compiles an aggregation run from a YAML file.
// It returns an error if reading, parsing, validation, or unit
// construction fails.
func (cl *ConfigLoader) LoadFromFile(ctx context.Context, path string) (*Plan, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return cl.load(ctx, data)
}

// LoadFromReader loads and compiles an aggregation run from r.
func (cl *ConfigLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return cl.load(ctx, data)
}

// LoadGroupsFromFile reads only the groups of a document at path.
// Unlike LoadFromFile it tolerates unknown top-level keys and does not
// require a curves section. Results are not cached.
func (cl *ConfigLoader) LoadGroupsFromFile(path string) ([]domain.GroupCurve, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc GroupsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cl.validator.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateGroupNames(doc.Groups); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return doc.Groups, nil
}

// load is the common implementation for loading plans from byte data.
// The returned plan is a shared cached instance.
func (cl *ConfigLoader) load(ctx context.Context, data []byte) (*Plan, error) {
	config, err := cl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized config, not raw bytes, so formatting changes
	// hit the cache.
	hash, err := cl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		if plan, ok := cl.getCachedPlan(hash); ok {
			return plan, nil
		}

		if err := cl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		plan, err := cl.buildPlan(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to build plan: %w", err)
		}

		cl.cachePlan(hash, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Plan), nil
}

// parseYAML unmarshals data into an AggregationConfig using strict
// decoding so configuration typos are reported.
func (cl *ConfigLoader) parseYAML(data []byte) (*AggregationConfig, error) {
	var config AggregationConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig performs struct and semantic validation.
func (cl *ConfigLoader) validateConfig(config *AggregationConfig) error {
	if err := cl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := cl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics checks rules that struct tags cannot express: unique
// curve IDs, registered unit types, per-type parameters and unique group
// names.
func (cl *ConfigLoader) validateSemantics(config *AggregationConfig) error {
	supported := make(map[string]struct{})
	for _, t := range cl.unitRegistry.GetSupportedTypes() {
		supported[t] = struct{}{}
	}

	seen := make(map[string]int, len(config.Curves))
	for i, curve := range config.Curves {
		if prev, exists := seen[curve.ID]; exists {
			return fmt.Errorf("duplicate curve ID %q: curves[%d] and curves[%d]", curve.ID, prev, i)
		}
		seen[curve.ID] = i

		if _, ok := supported[curve.Type]; !ok {
			return ports.NewConfigError(
				fmt.Sprintf("curves[%d].type", i),
				fmt.Errorf("%w: %s", ports.ErrUnsupportedUnitType, curve.Type),
			)
		}

		if err := ValidateCurveParameters(cl.validator, curve.Type, curve.Parameters); err != nil {
			return ports.NewConfigError(fmt.Sprintf("curves[%d].parameters", i), err)
		}
	}

	return validateGroupNames(config.Groups)
}

// validateGroupNames rejects two groups sharing a non-empty name, which
// would make errors and logs ambiguous.
func validateGroupNames(groups []domain.GroupCurve) error {
	seen := make(map[string]int, len(groups))
	for i, g := range groups {
		if g.Name == "" {
			continue
		}
		if prev, exists := seen[g.Name]; exists {
			return fmt.Errorf("duplicate group name %q: groups[%d] and groups[%d]", g.Name, prev, i)
		}
		seen[g.Name] = i
	}
	return nil
}

// buildPlan instantiates every curve unit through the registry and
// validates it.
func (cl *ConfigLoader) buildPlan(ctx context.Context, config *AggregationConfig) (*Plan, error) {
	plan := &Plan{
		Name:   config.Metadata.Name,
		Groups: config.Groups,
		Units:  make([]PlannedUnit, 0, len(config.Curves)),
	}

	for i, curve := range config.Curves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unit, err := cl.createUnit(curve)
		if err != nil {
			return nil, ports.NewConfigError(fmt.Sprintf("curves[%d]", i), err)
		}
		if err := unit.Validate(); err != nil {
			return nil, ports.NewConfigError(fmt.Sprintf("curves[%d]", i), fmt.Errorf("unit %s is invalid: %w", curve.ID, err))
		}

		plan.Units = append(plan.Units, PlannedUnit{ID: curve.ID, Type: curve.Type, Unit: unit})
	}

	return plan, nil
}

// createUnit decodes the curve's parameters and delegates to the registry.
func (cl *ConfigLoader) createUnit(config CurveConfig) (ports.Unit, error) {
	params := make(map[string]any)
	if config.Parameters.Kind != 0 {
		if err := config.Parameters.Decode(&params); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	unit, err := cl.unitRegistry.CreateUnit(config.Type, config.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	return unit, nil
}

// calculateConfigHash computes the SHA256 hash of a normalized config.
func (cl *ConfigLoader) calculateConfigHash(config *AggregationConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedPlan returns a previously compiled plan. It is safe for
// concurrent use.
func (cl *ConfigLoader) getCachedPlan(hash string) (*Plan, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()

	plan, ok := cl.cache[hash]
	return plan, ok
}

// cachePlan stores a compiled plan. It is safe for concurrent use.
func (cl *ConfigLoader) cachePlan(hash string, plan *Plan) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache[hash] = plan
}

// ClearCache removes all cached plans, forcing subsequent loads to
// recompile from source.
func (cl *ConfigLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache = make(map[string]*Plan)
}
