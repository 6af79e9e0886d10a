package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gosurv/adapters/excel"
	"gosurv/adapters/render"
	"gosurv/app"
	"gosurv/domain/comparison"
	"gosurv/domain/core"
	"gosurv/domain/run"
	"gosurv/domain/survival"
	"gosurv/internal"
	"gosurv/internal/config"
	"gosurv/internal/container"
	apperrors "gosurv/internal/errors"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gosurv",
		Short: "Compare Kaplan-Meier, Weibull AFT and Cox PH estimates on simulated censored data",
		Long: `gosurv simulates right-censored Weibull failure times, fits a Kaplan-Meier
estimator, a Weibull accelerated failure time model and a Cox proportional
hazards model, and compares their survival, cumulative hazard and quartiles
against the true law.

Defaults come from the environment (.env is loaded when present); flags override them.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newReportCmd(),
		newSampleCmd(),
		newQuartilesCmd(),
		newMigrateCmd(),
		newRunsCmd(),
		newVerifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// specFlags are the simulation flags shared by every command that draws a sample
type specFlags struct {
	size       int
	seed       uint64
	shape      float64
	scale      float64
	censorRate float64
}

func (f *specFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.size, "n", survival.DefaultSampleSize, "Sample size")
	cmd.Flags().Uint64Var(&f.seed, "seed", survival.DefaultSeed, "Random seed for deterministic operations")
	cmd.Flags().Float64Var(&f.shape, "shape", survival.DefaultFailureShape, "Weibull failure shape")
	cmd.Flags().Float64Var(&f.scale, "scale", survival.DefaultFailureScale, "Weibull failure scale")
	cmd.Flags().Float64Var(&f.censorRate, "censor-rate", survival.DefaultCensoringRate, "Exponential censoring rate")
}

// apply overrides config values with the flags that were set explicitly
func (f *specFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("n") {
		cfg.Survival.SampleSize = f.size
	}
	if cmd.Flags().Changed("seed") {
		cfg.Survival.Seed = f.seed
	}
	if cmd.Flags().Changed("shape") {
		cfg.Survival.WeibullShape = f.shape
	}
	if cmd.Flags().Changed("scale") {
		cfg.Survival.WeibullScale = f.scale
	}
	if cmd.Flags().Changed("censor-rate") {
		cfg.Survival.CensorRate = f.censorRate
	}
}

func loadConfig() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := internal.NewLoggerWithWriter(internal.ParseLogLevel(cfg.Log.Level), cfg.Log.Format, os.Stderr)
	return cfg, logger, nil
}

func newReportCmd() *cobra.Command {
	var spec specFlags
	var gridPoints int
	var outDir, format, input string
	var archive bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the full comparison and write plots, tables and the run manifest",
		Long: `Run the full comparison: draw the sample (or read it with --input), fit the
three models, evaluate them on the plot grid and write survival and cumulative
hazard plots, a markdown/HTML report, a workbook and the run manifest under
<out>/<run id>/. The quartile table is printed to stdout.

Example: gosurv report --seed 475 --format svg --out ./reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			spec.apply(cmd, cfg)
			if cmd.Flags().Changed("grid") {
				cfg.Survival.GridPoints = gridPoints
			}
			if cmd.Flags().Changed("out") {
				cfg.Report.Dir = outDir
			}
			if cmd.Flags().Changed("format") {
				cfg.Report.PlotFormat = strings.ToLower(format)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runReport(cmd.Context(), cfg, logger, input, archive)
		},
	}

	spec.register(cmd)
	cmd.Flags().IntVar(&gridPoints, "grid", config.DefaultGridPoints, "Number of plot grid points")
	cmd.Flags().StringVar(&outDir, "out", config.DefaultReportDir, "Output directory")
	cmd.Flags().StringVar(&format, "format", config.DefaultPlotFormat, "Plot format: png|svg")
	cmd.Flags().StringVar(&input, "input", "", "Read the sample from a CSV or XLSX file with time and status columns")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive the run in Postgres (requires DATABASE_URL)")
	return cmd
}

func runReport(ctx context.Context, cfg *config.Config, logger *internal.Logger, input string, archive bool) error {
	c, err := container.New(cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	if archive {
		db, err := container.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		if err := c.InitWithDatabase(ctx, db); err != nil {
			db.Close()
			return err
		}
	}

	req := app.ComparisonRequest{
		Spec:       cfg.SampleSpec(),
		GridPoints: cfg.Survival.GridPoints,
	}
	if input != "" {
		sample, err := excel.NewDataReader(input, logger).ReadSample(req.Spec)
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
		req.Sample = sample
	}

	report, err := c.Comparison.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("\nArtifacts written to %s\n", c.DirectorySink.RunDir(report.RunID))
	return nil
}

func newSampleCmd() *cobra.Command {
	var spec specFlags
	var output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw the censored sample and print its summary or write it to a file",
		Long: `Draw the right-censored sample. Without --output a summary is printed;
with --output the records are written as CSV or XLSX depending on the extension.

Example: gosurv sample --seed 475 --output sample.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			spec.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSample(cmd.Context(), cfg, logger, output)
		},
	}

	spec.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the sample to a .csv or .xlsx file")
	return cmd
}

func runSample(ctx context.Context, cfg *config.Config, logger *internal.Logger, output string) error {
	c, err := container.New(cfg, logger, nil)
	if err != nil {
		return err
	}

	sample, err := c.Sampler.Draw(ctx, cfg.SampleSpec())
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(output)) {
	case "":
		spec := sample.Spec()
		fmt.Printf("n=%d  events=%d  censored=%d (%.1f%%)  max time=%.4f\n",
			sample.Len(), sample.Events(), sample.Censored(), 100*sample.CensoredFraction(), sample.MaxTime())
		fmt.Printf("failure Weibull(shape=%g, scale=%g)  censoring Exponential(rate=%g)  seed=%d\n",
			spec.FailureShape, spec.FailureScale, spec.CensoringRate, spec.Seed)
		return nil
	case ".csv":
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		if err := excel.WriteSampleCSV(f, sample); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	case ".xlsx":
		if err := excel.WriteSampleXLSX(output, sample); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output extension %q (use .csv or .xlsx)", filepath.Ext(output))
	}

	fmt.Printf("Wrote %d records to %s\n", sample.Len(), output)
	return nil
}

func newQuartilesCmd() *cobra.Command {
	var spec specFlags

	cmd := &cobra.Command{
		Use:   "quartiles",
		Short: "Print the 4 x 3 quartile table without writing any files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			spec.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			c, err := container.New(cfg, logger, nil)
			if err != nil {
				return err
			}
			svc := app.NewComparisonService(app.ComparisonDeps{
				Sampler:   c.Sampler,
				RNG:       c.RNG,
				Estimator: c.Estimator,
				AFT:       c.AFT,
				Cox:       c.Cox,
				ConfLevel: cfg.Survival.ConfLevel,
				Logger:    logger,
			})
			report, err := svc.Run(cmd.Context(), app.ComparisonRequest{
				Spec:       cfg.SampleSpec(),
				GridPoints: cfg.Survival.GridPoints,
			})
			if err != nil {
				return err
			}
			fmt.Println(render.QuartileTable(report))
			return nil
		},
	}

	spec.register(cmd)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the run archive tables in the database named by DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			c, err := container.New(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			db, err := container.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			if err := c.InitWithDatabase(cmd.Context(), db); err != nil {
				db.Close()
				return err
			}
			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	var limit int
	var id string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs, or show one with --id",
		RunE: func(cmd *cobra.Command, args []string) error {
			var runID core.RunID
			if cmd.Flags().Changed("id") {
				parsed, err := core.ParseRunID(id)
				if err != nil {
					return apperrors.InvalidInput("--id", err)
				}
				runID = parsed
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			c, err := container.New(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			db, err := container.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			if err := c.InitWithDatabase(cmd.Context(), db); err != nil {
				db.Close()
				return err
			}

			var records []*comparison.RunRecord
			if runID != "" {
				rec, err := c.RunRepo.GetRun(cmd.Context(), runID)
				if core.IsNotFoundError(err) {
					return apperrors.Wrap(err, fmt.Sprintf("run %s is not archived", runID))
				}
				if err != nil {
					return err
				}
				records = append(records, rec)
			} else {
				records, err = c.RunRepo.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}
			for _, rec := range records {
				fmt.Printf("%s  %s  n=%-5d seed=%-6d  AFT scale=%.4f  gap=%.2g  %s\n",
					rec.RunID, rec.Fingerprint.Short(), rec.SampleSize, rec.Seed, rec.AFTScale, rec.KMCoxMaxGap, rec.CreatedAt)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().StringVar(&id, "id", "", "Show a single run by id")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <manifest.json>",
		Short: "Check that a run manifest is intact and its random streams still replay",
		Long: `Check a manifest.json written by the report command: its fingerprint must
match its fields and the seeded random streams must reproduce the draws it
recorded. Runs on a supplied --input sample are rejected since only the file
can reproduce them.

Example: gosurv verify ./reports/<run id>/manifest.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var manifest run.RunManifest
			if err := json.Unmarshal(data, &manifest); err != nil {
				return apperrors.InvalidInput(args[0], err)
			}

			c, err := container.New(cfg, logger, nil)
			if err != nil {
				return err
			}
			if err := c.Comparison.Verify(cmd.Context(), &manifest); err != nil {
				return apperrors.FromDomain(err)
			}
			fmt.Printf("Run %s verified (fingerprint %s, %d streams)\n",
				manifest.RunID, manifest.Fingerprint.Fingerprint.Short(), len(manifest.StreamChecks))
			return nil
		},
	}
}
