package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ahrav/rocagg/infrastructure/middleware"
	"github.com/ahrav/rocagg/internal/application"
	"github.com/ahrav/rocagg/internal/config"
	"github.com/ahrav/rocagg/internal/logging"
	"github.com/ahrav/rocagg/internal/observability"
)

// environment holds everything built in Before and torn down in After.
type environment struct {
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   zerolog.Logger
	logClose io.Closer

	registry *prometheus.Registry
	metrics  *middleware.PrometheusMetrics
	tracer   *sdktrace.TracerProvider

	units  *application.DefaultUnitRegistry
	loader *application.ConfigLoader
}

func newApp(stdout, stderr io.Writer) *cli.App {
	env := &environment{stdout: stdout, stderr: stderr}

	return &cli.App{
		Name:      "rocagg",
		Usage:     "merge per-group ROC curves into exact dataset-wide curves",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file with ROCAGG_* settings",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also write JSON logs to this rotated file",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Usage:   "output encoding: json, yaml or msgpack",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "maximum number of curves computed at once",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "write OpenTelemetry spans to stderr",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics in text format to this file",
			},
		},
		Before: env.setup,
		After:  env.teardown,
		Commands: []*cli.Command{
			curveCommand(env, curveROC),
			curveCommand(env, curvePR),
			curveCommand(env, curveCM),
			runCommand(env),
			fixtureCommand(env),
		},
	}
}

// setup resolves settings from the environment and flags, then builds the
// logger, metrics, tracing and loader shared by every command.
func (e *environment) setup(c *cli.Context) error {
	cfg, err := config.Parse(c.String("env-file"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("format") {
		cfg.OutputFormat = c.String("format")
	}
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("trace") {
		cfg.EnableTracing = c.Bool("trace")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}

	switch cfg.OutputFormat {
	case application.FormatJSON, application.FormatYAML, application.FormatMsgpack:
	default:
		return fmt.Errorf("unsupported output format %q", cfg.OutputFormat)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	e.cfg = cfg

	e.logger, e.logClose, err = logging.Configure(logging.Options{
		Level:      cfg.LogLevel,
		Console:    e.stderr,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogFileMaxSizeMB,
		MaxBackups: cfg.LogFileMaxBackups,
		DevMode:    cfg.DevMode,
	})
	if err != nil {
		return err
	}

	e.registry = prometheus.NewRegistry()
	e.metrics, err = middleware.NewPrometheusMetrics(e.registry)
	if err != nil {
		return err
	}

	if cfg.EnableTracing {
		e.tracer, err = observability.NewTracerProvider(e.stderr, version)
		if err != nil {
			return err
		}
	}

	e.units = application.NewDefaultUnitRegistry()
	e.loader, err = application.NewConfigLoader(e.units)
	if err != nil {
		return err
	}

	e.logger.Debug().
		Str("format", cfg.OutputFormat).
		Int("concurrency", cfg.Concurrency).
		Bool("tracing", cfg.EnableTracing).
		Msg("configuration resolved")
	return nil
}

// teardown flushes spans, writes the metrics file and closes the log file.
func (e *environment) teardown(c *cli.Context) error {
	var errs []error

	if e.tracer != nil {
		errs = append(errs, observability.Shutdown(context.Background(), e.tracer))
	}
	if e.cfg != nil && e.cfg.MetricsFile != "" && e.registry != nil {
		if err := prometheus.WriteToTextfile(e.cfg.MetricsFile, e.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics file: %w", err))
		}
	}
	if e.logClose != nil {
		errs = append(errs, e.logClose.Close())
	}

	return errors.Join(errs...)
}

// runner builds a Runner wired to the environment's logger and metrics.
func (e *environment) runner() *application.Runner {
	opts := []application.RunnerOption{
		application.WithLogger(e.logger),
		application.WithMetrics(e.metrics),
		application.WithConcurrency(e.cfg.Concurrency),
	}
	if e.tracer != nil {
		opts = append(opts, application.WithTracerProvider(e.tracer))
	}
	return application.NewRunner(opts...)
}
