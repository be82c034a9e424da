// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/rocagg/internal/domain"
)

// Unit represents one step of an aggregation run.
// Each Unit reads its inputs from the State and writes its result back
// under its own key, so several units can share the same input State.
// Units should be stateless and thread-safe for concurrent execution.
type Unit interface {
	// Name returns a unique identifier for this unit.
	// The name is used for logging, metrics labels, and report keys.
	Name() string

	// Execute performs the unit's transformation on the provided State.
	// It returns a new State containing the results of the transformation.
	// The original State must not be modified.
	//
	// The context parameter allows for cancellation and deadline propagation.
	// Units should respect context cancellation and return promptly.
	//
	// Example:
	//
	//	newState, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return nil, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the unit is properly configured and ready for execution.
	// It is typically called while a plan is compiled, before any group data
	// is touched. Return nil if validation passes, or an error describing
	// what is invalid.
	Validate() error
}

// UnitFactory builds a configured Unit from its identifier and the decoded
// parameters of a curve entry.
// Factories must not retain the config map after returning.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry resolves unit types named in configuration documents to
// the factories that build them.
// Implementations must be safe for concurrent use.
type UnitRegistry interface {
	// CreateUnit builds a unit of the given type.
	// It returns an error wrapping ErrUnsupportedUnitType when no factory
	// is registered for unitType.
	CreateUnit(unitType string, id string, config map[string]any) (Unit, error)

	// RegisterUnitFactory adds or replaces the factory for unitType.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes lists every registered unit type.
	GetSupportedTypes() []string
}
