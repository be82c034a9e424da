package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ahrav/rocagg/internal/domain"
)

// recordingMetrics keeps every call so tests can assert on them.
type recordingMetrics struct {
	mu         sync.Mutex
	latencies  map[string]time.Duration
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		latencies:  make(map[string]time.Duration),
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *recordingMetrics) RecordLatency(operation string, d time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies[operation+"/"+labels["unit"]] = d
}

func (m *recordingMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metric+"/"+labels["status"]] += value
}

func (m *recordingMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metric] = value
}

func (m *recordingMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metric + "/" + labels["class"]
	m.histograms[key] = append(m.histograms[key], value)
}

// fakeUnit stores a fixed ROC curve or fails.
type fakeUnit struct {
	name string
	err  error
}

func (f *fakeUnit) Name() string    { return f.name }
func (f *fakeUnit) Validate() error { return f.err }
func (f *fakeUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	if f.err != nil {
		return state, f.err
	}
	roc := &domain.ROCCurve{FPR: []float64{0, 1}, TPR: []float64{0, 1}, Thresholds: []float64{0.9, 0.1}}
	return domain.With(state, domain.KeyROC, roc), nil
}

func testState() domain.State {
	groups := []domain.GroupCurve{
		{Name: "a", FPR: []float64{1}, TPR: []float64{1}, Thresholds: []float64{0.1}, NegativeCount: 2, TotalCount: 8},
		{Name: "b", FPR: []float64{1}, TPR: []float64{1}, Thresholds: []float64{0.1}, NegativeCount: 5, TotalCount: 10},
	}
	state := domain.With(domain.NewState(), domain.KeyGroups, groups)
	return state.WithExecutionContext(domain.ExecutionContext{ConfigName: "folds", ExecutionID: "exec-1"})
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestInstrumentedUnit_Success(t *testing.T) {
	sr, tp := newRecorder()
	metrics := newRecordingMetrics()

	unit := NewInstrumentedUnit(&fakeUnit{name: "roc"}, metrics, WithTracerProvider(tp))
	assert.Equal(t, "roc", unit.Name())
	assert.NoError(t, unit.Validate())

	out, err := unit.Execute(context.Background(), testState())
	require.NoError(t, err)

	_, ok := domain.Get(out, domain.KeyROC)
	assert.True(t, ok, "the wrapped unit's output is returned unchanged")

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "Unit.Execute", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := attrMap(span.Attributes())
	assert.Equal(t, "roc", attrs["unit.name"].AsString())
	assert.Equal(t, int64(2), attrs["aggregation.groups"].AsInt64())
	assert.Equal(t, int64(7), attrs["aggregation.negatives"].AsInt64())
	assert.Equal(t, int64(11), attrs["aggregation.positives"].AsInt64())
	assert.Equal(t, "exec-1", attrs["execution.id"].AsString())

	require.Len(t, span.Events(), 1)
	assert.Equal(t, "aggregation.completed", span.Events()[0].Name)

	assert.Contains(t, metrics.latencies, MetricUnitExecute+"/roc")
	assert.Equal(t, 1.0, metrics.counters[MetricUnitExecute+"/success"])
	assert.Equal(t, 2.0, metrics.gauges[MetricGroups])
	assert.Equal(t, 2.0, metrics.gauges[MetricGridPoints])
	assert.Equal(t, []float64{7}, metrics.histograms[MetricCountTotal+"/negative"])
	assert.Equal(t, []float64{11}, metrics.histograms[MetricCountTotal+"/positive"])
}

func TestInstrumentedUnit_Failure(t *testing.T) {
	sr, tp := newRecorder()
	metrics := newRecordingMetrics()
	boom := errors.New("boom")

	unit := NewInstrumentedUnit(&fakeUnit{name: "pr", err: boom}, metrics, WithTracerProvider(tp))

	_, err := unit.Execute(context.Background(), testState())
	assert.ErrorIs(t, err, boom)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)

	assert.Equal(t, 1.0, metrics.counters[MetricUnitExecute+"/error"])
	assert.Zero(t, metrics.counters[MetricUnitExecute+"/success"])
	assert.Empty(t, metrics.gauges, "sizes are only reported for successful runs")
}

func TestInstrumentedUnit_NilMetrics(t *testing.T) {
	sr, tp := newRecorder()
	unit := NewInstrumentedUnit(&fakeUnit{name: "roc"}, nil, WithTracerProvider(tp))

	_, err := unit.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)
	assert.Len(t, sr.Ended(), 1)
}

func TestInstrumentedUnit_Unwrap(t *testing.T) {
	inner := &fakeUnit{name: "cm"}
	unit := NewInstrumentedUnit(inner, nil)
	assert.Same(t, inner, unit.Unwrap())
}

func TestGridPoints(t *testing.T) {
	tests := []struct {
		name  string
		state domain.State
		want  int
	}{
		{name: "empty state", state: domain.NewState(), want: 0},
		{
			name: "partial confusion matrix",
			state: domain.With(domain.NewState(), domain.KeyPartialCM, &domain.PartialConfusion{
				Grid: domain.UnifiedGrid{0.1, 0.2, 0.3},
			}),
			want: 3,
		},
		{
			name:  "precision-recall curve",
			state: domain.With(domain.NewState(), domain.KeyPR, &domain.PRCurve{Thresholds: []float64{0.5}}),
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gridPoints(tt.state))
		})
	}
}
