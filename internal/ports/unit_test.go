package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/rocagg/internal/domain"
)

// mockUnit is a test implementation of the Unit interface
type mockUnit struct {
	name        string
	executeFunc func(context.Context, domain.State) (domain.State, error)
	validateErr error
}

func (m *mockUnit) Name() string {
	return m.name
}

func (m *mockUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, state)
	}
	return state, nil
}

func (m *mockUnit) Validate() error {
	return m.validateErr
}

var testKey = domain.NewKey[string]("test")

func TestUnit_Interface(t *testing.T) {
	var _ Unit = (*mockUnit)(nil)

	unit := &mockUnit{
		name: "test-unit",
		executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
			return domain.With(state, testKey, "value"), nil
		},
	}

	assert.Equal(t, "test-unit", unit.Name(), "Name() mismatch")
	assert.NoError(t, unit.Validate(), "Validate() should not return error")

	ctx := context.Background()
	initialState := domain.NewState()

	newState, err := unit.Execute(ctx, initialState)
	require.NoError(t, err, "Execute() should not return error")

	v, ok := domain.Get(newState, testKey)
	require.True(t, ok, "Execute() should add test key to state")
	assert.Equal(t, "value", v, "Execute() state value mismatch")

	// Verify original state unchanged
	_, ok = domain.Get(initialState, testKey)
	assert.False(t, ok, "Execute() should not modify original state")
}

func TestUnit_ValidationFailure(t *testing.T) {
	validationErr := errors.New("invalid configuration")
	unit := &mockUnit{
		name:        "failing-unit",
		validateErr: validationErr,
	}

	err := unit.Validate()
	assert.Equal(t, validationErr, err, "Validate() error mismatch")
}

func TestUnit_ContextCancellation(t *testing.T) {
	unit := &mockUnit{
		name: "context-aware-unit",
		executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
			select {
			case <-ctx.Done():
				return domain.State{}, ctx.Err()
			default:
				return state, nil
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := unit.Execute(ctx, domain.NewState())
	assert.Equal(t, context.Canceled, err, "Execute() with cancelled context should return context.Canceled")
}

// TestUnitFactory checks that a plain function satisfies UnitFactory and
// receives the identifier and parameters it was called with.
func TestUnitFactory(t *testing.T) {
	var factory UnitFactory = func(id string, config map[string]any) (Unit, error) {
		if id == "" {
			return nil, ErrConfigNotFound
		}
		return &mockUnit{name: id}, nil
	}

	unit, err := factory("roc", map[string]any{"validate_input": true})
	require.NoError(t, err)
	assert.Equal(t, "roc", unit.Name())

	_, err = factory("", nil)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}
