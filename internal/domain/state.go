// Package domain contains pure, dependency-free domain models and types
// for curve aggregation.
package domain

import "maps"

// Key names a State entry holding a value of type T.
type Key[T any] struct{ name string }

// NewKey creates a Key outside the domain package, e.g. for custom units.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key's string identifier.
func (k Key[T]) Name() string { return k.name }

// Keys shared by the built-in units and the runner.
var (
	// KeyGroups stores the per-group curves being aggregated.
	KeyGroups = Key[[]GroupCurve]{"groups"}

	// KeyPartialCM stores the merged confusion counts and their grid.
	KeyPartialCM = Key[*PartialConfusion]{"partial_cm"}

	// KeyROC stores the aggregated ROC curve.
	KeyROC = Key[*ROCCurve]{"roc_curve"}

	// KeyPR stores the aggregated precision-recall curve.
	KeyPR = Key[*PRCurve]{"precision_recall_curve"}

	// KeyConfigName stores the name of the aggregation config being run.
	KeyConfigName = Key[string]{"execution.config_name"}

	// KeyExecutionID stores the identifier of one run.
	KeyExecutionID = Key[string]{"execution.execution_id"}
)

// cloneValue copies the curve types stored by the built-in units so a
// State never shares backing arrays with its callers. Other values are
// stored as given; callers storing their own slices or pointers own their
// aliasing.
func cloneValue(value any) any {
	switch v := value.(type) {
	case []GroupCurve:
		if v == nil {
			return v
		}
		out := make([]GroupCurve, len(v))
		for i, g := range v {
			out[i] = g.Clone()
		}
		return out
	case GroupCurve:
		return v.Clone()
	case *PartialConfusion:
		return v.Clone()
	case *ROCCurve:
		return v.Clone()
	case *PRCurve:
		return v.Clone()
	default:
		return value
	}
}

// State is the immutable set of values flowing through the units of one
// run. Every update returns a new State, so a single State can be read
// by many units concurrently.
type State struct {
	data map[string]any
}

// NewState creates an empty State.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get returns a copy of the value stored under key. The boolean is false
// when the key is missing or holds a value of another type.
//
//	groups, ok := Get(state, KeyGroups)
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	val, ok := cloneValue(value).(T)
	return val, ok
}

// With returns a new State with value stored under key, leaving s
// unchanged.
func With[T any](s State, key Key[T], value T) State {
	data := maps.Clone(s.data)
	if data == nil {
		data = make(map[string]any, 1)
	}
	data[key.name] = cloneValue(value)
	return State{data: data}
}

// ExecutionContext identifies the run a State belongs to. Middleware reads
// it to label spans and logs.
type ExecutionContext struct {
	ConfigName  string
	ExecutionID string
}

// WithExecutionContext returns a new State carrying ctx.
func (s State) WithExecutionContext(ctx ExecutionContext) State {
	s = With(s, KeyConfigName, ctx.ConfigName)
	return With(s, KeyExecutionID, ctx.ExecutionID)
}

// GetExecutionContext extracts the run metadata. It returns false when
// either field is missing.
func (s State) GetExecutionContext() (ExecutionContext, bool) {
	configName, ok1 := Get(s, KeyConfigName)
	executionID, ok2 := Get(s, KeyExecutionID)
	if !ok1 || !ok2 {
		return ExecutionContext{}, false
	}

	return ExecutionContext{
		ConfigName:  configName,
		ExecutionID: executionID,
	}, true
}
