package migration

import (
	"context"

	"gosurv/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles the run archive schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSurvivalRunsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create survival_runs table"))
	}

	if err := r.createSurvivalQuartilesTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create survival_quartiles table"))
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create indexes"))
	}

	return nil
}

func (r *MigrationRunner) createSurvivalRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS survival_runs (
			run_id VARCHAR(64) PRIMARY KEY,
			fingerprint VARCHAR(64) NOT NULL,
			sample_size INTEGER NOT NULL,
			failure_shape DOUBLE PRECISION NOT NULL,
			failure_scale DOUBLE PRECISION NOT NULL,
			censoring_rate DOUBLE PRECISION NOT NULL,
			seed BIGINT NOT NULL,
			events INTEGER NOT NULL,
			censored_fraction DOUBLE PRECISION NOT NULL,
			aft_intercept DOUBLE PRECISION,
			aft_scale DOUBLE PRECISION,
			aft_loglik DOUBLE PRECISION,
			cox_loglik DOUBLE PRECISION,
			km_cox_max_gap DOUBLE PRECISION,
			code_version VARCHAR(32) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createSurvivalQuartilesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS survival_quartiles (
			run_id VARCHAR(64) NOT NULL REFERENCES survival_runs(run_id) ON DELETE CASCADE,
			method VARCHAR(32) NOT NULL,
			position INTEGER NOT NULL,
			q1 DOUBLE PRECISION,
			median DOUBLE PRECISION,
			q3 DOUBLE PRECISION,
			PRIMARY KEY (run_id, method)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_survival_runs_fingerprint ON survival_runs(fingerprint);
		CREATE INDEX IF NOT EXISTS idx_survival_runs_created_at ON survival_runs(created_at DESC);
	`)
	return err
}
