package application

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/rocagg/infrastructure/middleware"
	"github.com/ahrav/rocagg/internal/domain"
	"github.com/ahrav/rocagg/internal/ports"
)

// DefaultConcurrency is the number of units a Runner executes at once
// unless configured otherwise.
const DefaultConcurrency = 4

// Runner errors.
var (
	// ErrNilPlan is returned when Run is called without a plan.
	ErrNilPlan = errors.New("plan cannot be nil")

	// ErrEmptyPlan is returned when a plan has no units to execute.
	ErrEmptyPlan = errors.New("plan has no units")
)

// Runner executes Plans. Every unit of a plan reads the same immutable
// State, so units run concurrently, bounded by the configured limit.
// A Runner is safe for concurrent use.
type Runner struct {
	logger         zerolog.Logger
	metrics        ports.MetricsCollector
	tracerProvider trace.TracerProvider
	concurrency    int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics reports unit metrics to collector.
func WithMetrics(collector ports.MetricsCollector) RunnerOption {
	return func(r *Runner) { r.metrics = collector }
}

// WithTracerProvider sets the provider used for unit spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) RunnerOption {
	return func(r *Runner) { r.tracerProvider = tp }
}

// WithConcurrency bounds how many units execute at once. Values below one
// are ignored.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 1 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:      zerolog.Nop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every unit of plan over the plan's groups and collects the
// results into a Report keyed by unit ID. The first unit failure cancels
// the remaining units and is returned.
func (r *Runner) Run(ctx context.Context, plan *Plan) (*Report, error) {
	if plan == nil {
		return nil, ErrNilPlan
	}
	if len(plan.Units) == 0 {
		return nil, ErrEmptyPlan
	}

	executionID := xid.New().String()
	logger := r.logger.With().
		Str("config", plan.Name).
		Str("execution_id", executionID).
		Logger()

	state := domain.With(domain.NewState(), domain.KeyGroups, plan.Groups).
		WithExecutionContext(domain.ExecutionContext{
			ConfigName:  plan.Name,
			ExecutionID: executionID,
		})

	var middlewareOpts []middleware.Option
	if r.tracerProvider != nil {
		middlewareOpts = append(middlewareOpts, middleware.WithTracerProvider(r.tracerProvider))
	}

	logger.Info().
		Int("groups", len(plan.Groups)).
		Int("units", len(plan.Units)).
		Msg("starting aggregation run")
	start := time.Now()

	outputs := make([]domain.State, len(plan.Units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, pu := range plan.Units {
		unit := middleware.NewInstrumentedUnit(pu.Unit, r.metrics, middlewareOpts...)
		g.Go(func() error {
			unitStart := time.Now()
			out, err := unit.Execute(gctx, state)
			if err != nil {
				err = pkgerrors.Wrapf(err, "unit %s", pu.ID)
				logger.Error().
					Stack().
					Err(err).
					Str("unit", pu.ID).
					Str("type", pu.Type).
					Msg("unit failed")
				return err
			}

			logger.Debug().
				Str("unit", pu.ID).
				Str("type", pu.Type).
				Dur("elapsed", time.Since(unitStart)).
				Msg("unit completed")
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := newReport(plan, executionID)
	for i, pu := range plan.Units {
		report.collect(pu.ID, outputs[i])
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Strs("units", lo.Map(plan.Units, func(pu PlannedUnit, _ int) string { return pu.ID })).
		Msg("aggregation run completed")

	return report, nil
}
