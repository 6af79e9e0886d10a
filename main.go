package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gosurv/app"
	"gosurv/internal"
	"gosurv/internal/config"
	"gosurv/internal/container"
	"gosurv/internal/errors"
)

// initArchive connects the run archive when DATABASE_URL is set
func initArchive(ctx context.Context, c *container.Container) error {
	if !c.Config.ArchiveEnabled() {
		c.Logger.Debug("DATABASE_URL not set, runs will not be archived")
		return nil
	}

	db, err := container.Connect(ctx, c.Config.Database.URL)
	if err != nil {
		return err
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return errors.Wrap(err, "run archive initialization failed")
	}
	return nil
}

func main() {
	logger := internal.NewDefaultLogger()

	// Load application configuration (.env first, then the environment)
	appConfig, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	logger = internal.NewLoggerWithWriter(internal.ParseLogLevel(appConfig.Log.Level), appConfig.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger, os.Stdout)
	if err != nil {
		logger.WithError(err).Error("Failed to create application container")
		os.Exit(1)
	}
	defer appContainer.Shutdown(context.Background())

	if err := initArchive(ctx, appContainer); err != nil {
		logger.WithError(err).Error("Failed to initialize run archive")
		os.Exit(1)
	}

	start := time.Now()
	report, err := appContainer.Comparison.Run(ctx, app.ComparisonRequest{
		Spec:       appConfig.SampleSpec(),
		GridPoints: appConfig.Survival.GridPoints,
	})
	if err != nil {
		logger.WithError(err).Error("Comparison failed [%s]", errors.GetCode(errors.FromDomain(err)))
		os.Exit(1)
	}

	logger.Info("Report %s written to %s in %s", report.RunID, appContainer.DirectorySink.RunDir(report.RunID), time.Since(start))
}
