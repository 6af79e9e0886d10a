package container

import (
	"context"
	"fmt"
	"io"

	"gosurv/adapters/postgres"
	"gosurv/adapters/render"
	"gosurv/adapters/rng"
	"gosurv/adapters/stats/estimators"
	"gosurv/adapters/stats/sampler"
	"gosurv/app"
	"gosurv/internal"
	"gosurv/internal/config"
	"gosurv/internal/errors"
	"gosurv/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB  *sqlx.DB
	RNG ports.RNGPort

	// Statistics
	Sampler   ports.SamplerPort
	Estimator ports.NonParametricEstimator
	AFT       ports.AFTFitter
	Cox       ports.CoxFitter

	// Output
	Plots         *render.PlotRenderer
	DirectorySink *render.DirectorySink
	ConsoleSink   *render.ConsoleSink
	RunRepo       *postgres.ReportRepositoryImpl // nil unless a database is attached

	Comparison *app.ComparisonService
}

// New creates a new dependency injection container. Console output goes to
// console; pass nil to disable the console sink.
func New(cfg *config.Config, logger *internal.Logger, console io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.Nop()
	}

	plots, err := render.NewPlotRenderer(cfg.Report.PlotFormat, cfg.Report.PlotWidthIn, cfg.Report.PlotHeightIn)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		RNG:       rng.NewPCGAdapter(),
		Estimator: estimators.NewKaplanMeierEstimator(cfg.Survival.ConfLevel),
		AFT:       estimators.NewWeibullAFTFitter(),
		Cox:       estimators.NewCoxPHFitter(cfg.Survival.ConfLevel),
		Plots:     plots,
	}
	c.Sampler = sampler.NewWeibullSampler(c.RNG, logger)
	c.DirectorySink = render.NewDirectorySink(cfg.Report.Dir, plots, logger)
	if console != nil {
		c.ConsoleSink = render.NewConsoleSink(console)
	}

	c.buildComparison()
	return c, nil
}

// Connect opens and pings the archive database
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to connect to database")
	}
	return db, nil
}

// InitWithDatabase attaches the run archive, migrating its schema first
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	repo := postgres.NewReportRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "database migration failed")
	}

	c.DB = db
	c.RunRepo = repo
	c.buildComparison()

	c.Logger.Info("[Container] run archive attached")
	return nil
}

// buildComparison (re)creates the comparison service from the current components
func (c *Container) buildComparison() {
	sinks := []ports.ReportSink{c.DirectorySink}
	if c.ConsoleSink != nil {
		sinks = append(sinks, c.ConsoleSink)
	}

	deps := app.ComparisonDeps{
		Sampler:   c.Sampler,
		RNG:       c.RNG,
		Estimator: c.Estimator,
		AFT:       c.AFT,
		Cox:       c.Cox,
		Sinks:     sinks,
		ConfLevel: c.Config.Survival.ConfLevel,
		Logger:    c.Logger,
	}
	if c.RunRepo != nil {
		deps.Repo = c.RunRepo
	}
	c.Comparison = app.NewComparisonService(deps)
}

// Shutdown closes the database connection when one is attached
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
