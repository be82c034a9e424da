package middleware

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/rocagg/internal/domain"
	"github.com/ahrav/rocagg/internal/ports"
)

// TracerName identifies spans created by InstrumentedUnit.
const TracerName = "github.com/ahrav/rocagg/infrastructure/middleware"

var _ ports.Unit = (*InstrumentedUnit)(nil)

// InstrumentedUnit decorates a ports.Unit with an OpenTelemetry span per
// execution and reports latency, outcome and aggregation size through a
// ports.MetricsCollector.
type InstrumentedUnit struct {
	next    ports.Unit
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// Option configures an InstrumentedUnit.
type Option func(*InstrumentedUnit)

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(u *InstrumentedUnit) { u.tracer = tp.Tracer(TracerName) }
}

// NewInstrumentedUnit wraps next. A nil metrics collector disables metric
// reporting while keeping the spans.
func NewInstrumentedUnit(next ports.Unit, metrics ports.MetricsCollector, opts ...Option) *InstrumentedUnit {
	u := &InstrumentedUnit{
		next:    next,
		metrics: metrics,
		tracer:  otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Name returns the wrapped unit's name.
func (u *InstrumentedUnit) Name() string { return u.next.Name() }

// Validate delegates to the wrapped unit.
func (u *InstrumentedUnit) Validate() error { return u.next.Validate() }

// Unwrap returns the decorated unit.
func (u *InstrumentedUnit) Unwrap() ports.Unit { return u.next }

// Execute runs the wrapped unit inside a span named "Unit.Execute".
func (u *InstrumentedUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	name := u.next.Name()
	ctx, span := u.tracer.Start(ctx, "Unit.Execute", trace.WithAttributes(
		attribute.String("unit.name", name),
	))
	defer span.End()

	groups, _ := domain.Get(state, domain.KeyGroups)
	negatives := lo.SumBy(groups, func(g domain.GroupCurve) int { return g.NegativeCount })
	positives := lo.SumBy(groups, func(g domain.GroupCurve) int { return g.PositiveCount() })
	span.SetAttributes(
		attribute.Int("aggregation.groups", len(groups)),
		attribute.Int("aggregation.negatives", negatives),
		attribute.Int("aggregation.positives", positives),
	)
	if ec, ok := state.GetExecutionContext(); ok {
		span.SetAttributes(
			attribute.String("execution.config_name", ec.ConfigName),
			attribute.String("execution.id", ec.ExecutionID),
		)
	}

	start := time.Now()
	out, err := u.next.Execute(ctx, state)
	elapsed := time.Since(start)

	labels := map[string]string{"unit": name}
	if u.metrics != nil {
		u.metrics.RecordLatency(MetricUnitExecute, elapsed, labels)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if u.metrics != nil {
			u.metrics.RecordCounter(MetricUnitExecute, 1, map[string]string{"unit": name, "status": "error"})
		}
		return out, err
	}

	points := gridPoints(out)
	span.AddEvent("aggregation.completed", trace.WithAttributes(
		attribute.Int("aggregation.grid_points", points),
	))
	span.SetStatus(codes.Ok, "")

	if u.metrics != nil {
		u.metrics.RecordCounter(MetricUnitExecute, 1, map[string]string{"unit": name, "status": "success"})
		u.metrics.RecordGauge(MetricGroups, float64(len(groups)), labels)
		u.metrics.RecordGauge(MetricGridPoints, float64(points), labels)
		u.metrics.RecordHistogram(MetricCountTotal, float64(negatives), map[string]string{"unit": name, "class": "negative"})
		u.metrics.RecordHistogram(MetricCountTotal, float64(positives), map[string]string{"unit": name, "class": "positive"})
	}

	return out, nil
}

// gridPoints returns the length of whichever result the unit stored.
func gridPoints(state domain.State) int {
	if pc, ok := domain.Get(state, domain.KeyPartialCM); ok && pc != nil {
		return len(pc.Grid)
	}
	if roc, ok := domain.Get(state, domain.KeyROC); ok && roc != nil {
		return len(roc.Thresholds)
	}
	if pr, ok := domain.Get(state, domain.KeyPR); ok && pr != nil {
		return len(pr.Thresholds)
	}
	return 0
}
