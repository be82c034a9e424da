package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/infrastructure/units"
	"github.com/ahrav/rocagg/internal/application"
	"github.com/ahrav/rocagg/internal/testutils"
)

// curveSpec describes one single-curve command.
type curveSpec struct {
	name     string
	usage    string
	unitType string
	// descending exposes the --descending flag.
	descending bool
	// pick selects the command's result from the report.
	pick func(r *application.Report, id string) any
}

var (
	curveROC = curveSpec{
		name:     "roc",
		usage:    "aggregate the groups into one ROC curve",
		unitType: units.TypeROCCurve,
		pick:     func(r *application.Report, id string) any { return r.ROC[id] },
	}
	curvePR = curveSpec{
		name:     "pr",
		usage:    "aggregate the groups into one precision-recall curve",
		unitType: units.TypePrecisionRecallCurve,
		pick:     func(r *application.Report, id string) any { return r.PR[id] },
	}
	curveCM = curveSpec{
		name:       "cm",
		usage:      "merge the groups into a partial confusion matrix",
		unitType:   units.TypePartialCM,
		descending: true,
		pick:       func(r *application.Report, id string) any { return r.PartialCM[id] },
	}
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "YAML or JSON document with a groups section",
		Required: true,
	}
}

// curveCommand builds a command computing a single curve from the groups
// of a document.
func curveCommand(env *environment, spec curveSpec) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:  "validate",
			Usage: "reject malformed groups before aggregating",
		},
	}
	if spec.descending {
		flags = append(flags, &cli.BoolFlag{
			Name:  "descending",
			Usage: "sort the grid from highest to lowest threshold",
		})
	}

	return &cli.Command{
		Name:  spec.name,
		Usage: spec.usage,
		Flags: flags,
		Action: func(c *cli.Context) error {
			groups, err := env.loader.LoadGroupsFromFile(c.String("config"))
			if err != nil {
				return err
			}

			params := map[string]any{"validate_input": c.Bool("validate")}
			if spec.descending {
				params["descending"] = c.Bool("descending")
			}
			unit, err := env.units.CreateUnit(spec.unitType, spec.name, params)
			if err != nil {
				return err
			}

			plan := &application.Plan{
				Name:   filepath.Base(c.String("config")),
				Groups: groups,
				Units:  []application.PlannedUnit{{ID: spec.name, Type: spec.unitType, Unit: unit}},
			}
			report, err := env.runner().Run(c.Context, plan)
			if err != nil {
				return err
			}

			return application.Encode(env.stdout, env.cfg.OutputFormat, spec.pick(report, spec.name))
		},
	}
}

// runCommand executes every curve declared in an aggregation document.
func runCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "execute every curve declared in an aggregation document",
		Flags: []cli.Flag{configFlag()},
		Action: func(c *cli.Context) error {
			plan, err := env.loader.LoadFromFile(c.Context, c.String("config"))
			if err != nil {
				return err
			}

			report, err := env.runner().Run(c.Context, plan)
			if err != nil {
				return err
			}

			return application.Encode(env.stdout, env.cfg.OutputFormat, report)
		},
	}
}

// fixtureCommand writes a synthetic aggregation document whose groups are
// computed from random scores, for trying the tool and for benchmarks.
func fixtureCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "fixture",
		Usage: "generate a synthetic aggregation document",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "groups", Usage: "number of groups", Value: 5},
			&cli.Int64Flag{Name: "seed", Usage: "random seed", Value: 1},
			&cli.StringFlag{Name: "output", Usage: "file to write; stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			n := c.Int("groups")
			if n < 1 {
				return fmt.Errorf("groups must be at least 1, got %d", n)
			}

			doc := application.AggregationConfig{
				Version: "1.0.0",
				Metadata: application.Metadata{
					Name:        fmt.Sprintf("synthetic-%d", c.Int64("seed")),
					Description: "synthetic groups generated from random scores",
					Tags:        []string{"synthetic"},
				},
				Groups: testutils.Curves(testutils.GenerateGroups(c.Int64("seed"), n, testutils.DefaultGroupOptions())),
			}
			for _, spec := range []curveSpec{curveCM, curveROC, curvePR} {
				doc.Curves = append(doc.Curves, application.CurveConfig{ID: spec.name, Type: spec.unitType})
			}

			data, err := yaml.Marshal(&doc)
			if err != nil {
				return fmt.Errorf("failed to encode fixture: %w", err)
			}

			path := c.String("output")
			if path == "" {
				_, err = env.stdout.Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write fixture: %w", err)
			}
			env.logger.Info().Str("path", path).Int("groups", n).Msg("fixture written")
			return nil
		},
	}
}
