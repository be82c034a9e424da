// Package middleware provides cross-cutting concerns for the aggregation units.
package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/rocagg/internal/ports"
)

// Metric names understood by PrometheusMetrics. Any other name passed to
// RecordGauge lands in the generic unit state gauge.
const (
	MetricUnitExecute = "unit_execute"
	MetricGridPoints  = "grid_points"
	MetricGroups      = "groups"
	MetricCountTotal  = "count_total"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks unit latency and outcomes together with the size of every
// aggregation: groups merged, grid points produced and pooled class counts.
type PrometheusMetrics struct {
	unitDuration *prometheus.HistogramVec
	operations   *prometheus.CounterVec
	gridPoints   *prometheus.GaugeVec
	groups       *prometheus.GaugeVec
	countTotal   *prometheus.HistogramVec
	unitState    *prometheus.GaugeVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer. Collectors that are already
// registered are reused, so several instances can share one registry.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	pm := &PrometheusMetrics{
		unitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rocagg_unit_duration_seconds",
				Help:    "Execution time of aggregation units.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rocagg_operations_total",
				Help: "Total number of unit operations by outcome.",
			},
			[]string{"operation", "status", "unit"},
		),
		gridPoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocagg_grid_points",
				Help: "Length of the unified threshold grid produced by the last run.",
			},
			[]string{"unit"},
		),
		groups: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocagg_groups",
				Help: "Number of groups merged by the last run.",
			},
			[]string{"unit"},
		),
		countTotal: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rocagg_count_total",
				Help:    "Pooled class counts seen by aggregation units.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 12),
			},
			[]string{"class", "unit"},
		),
		unitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocagg_unit_state",
				Help: "Other per-unit values reported through RecordGauge.",
			},
			[]string{"metric", "unit"},
		),
	}

	var err error
	pm.unitDuration, err = register(reg, "rocagg_unit_duration_seconds", pm.unitDuration)
	if err != nil {
		return nil, err
	}
	pm.operations, err = register(reg, "rocagg_operations_total", pm.operations)
	if err != nil {
		return nil, err
	}
	pm.gridPoints, err = register(reg, "rocagg_grid_points", pm.gridPoints)
	if err != nil {
		return nil, err
	}
	pm.groups, err = register(reg, "rocagg_groups", pm.groups)
	if err != nil {
		return nil, err
	}
	pm.countTotal, err = register(reg, "rocagg_count_total", pm.countTotal)
	if err != nil {
		return nil, err
	}
	pm.unitState, err = register(reg, "rocagg_unit_state", pm.unitState)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// register adds c to reg, returning the collector already registered under
// the same descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, name string, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, ports.NewMetricsError(name, "Register", fmt.Errorf("%w: %w", ports.ErrMetricRegistration, err))
	}
	return c, nil
}

func unitLabel(labels map[string]string) string {
	if unit := labels["unit"]; unit != "" {
		return unit
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.unitDuration.WithLabelValues(operation, unitLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// the operations counter. The "status" label defaults to "success".
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	status := labels["status"]
	if status == "" {
		status = "success"
	}
	pm.operations.WithLabelValues(metric, status, unitLabel(labels)).Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	unit := unitLabel(labels)

	switch metric {
	case MetricGridPoints:
		pm.gridPoints.WithLabelValues(unit).Set(value)
	case MetricGroups:
		pm.groups.WithLabelValues(unit).Set(value)
	default:
		pm.unitState.WithLabelValues(metric, unit).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. The "class" label selects the series
// of the count histogram and falls back to the metric name.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	class := labels["class"]
	if class == "" {
		class = metric
	}
	pm.countTotal.WithLabelValues(class, unitLabel(labels)).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
