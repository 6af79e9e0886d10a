package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gosurv/domain/comparison"
	"gosurv/domain/core"
	"gosurv/domain/survival"
	apperrors "gosurv/internal/errors"
	"gosurv/internal/migration"
	"gosurv/ports"

	"github.com/jmoiron/sqlx"
)

// ReportRepositoryImpl archives comparison runs in PostgreSQL
type ReportRepositoryImpl struct {
	db       *sqlx.DB
	migrator migration.Migrator
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sqlx.DB) *ReportRepositoryImpl {
	return &ReportRepositoryImpl{db: db, migrator: migration.NewRunner()}
}

var _ ports.ReportRepository = (*ReportRepositoryImpl)(nil)

// runRow mirrors one survival_runs row
type runRow struct {
	RunID            string    `db:"run_id"`
	Fingerprint      string    `db:"fingerprint"`
	SampleSize       int       `db:"sample_size"`
	FailureShape     float64   `db:"failure_shape"`
	FailureScale     float64   `db:"failure_scale"`
	CensoringRate    float64   `db:"censoring_rate"`
	Seed             int64     `db:"seed"`
	Events           int       `db:"events"`
	CensoredFraction float64   `db:"censored_fraction"`
	AFTIntercept     float64   `db:"aft_intercept"`
	AFTScale         float64   `db:"aft_scale"`
	AFTLogLik        float64   `db:"aft_loglik"`
	CoxLogLik        float64   `db:"cox_loglik"`
	KMCoxMaxGap      float64   `db:"km_cox_max_gap"`
	CodeVersion      string    `db:"code_version"`
	CreatedAt        time.Time `db:"created_at"`
}

// quartileRow mirrors one survival_quartiles row
type quartileRow struct {
	RunID    string  `db:"run_id"`
	Method   string  `db:"method"`
	Position int     `db:"position"`
	Q1       float64 `db:"q1"`
	Median   float64 `db:"median"`
	Q3       float64 `db:"q3"`
}

const runColumns = `run_id, fingerprint, sample_size, failure_shape, failure_scale, censoring_rate, seed,
	events, censored_fraction, aft_intercept, aft_scale, aft_loglik, cox_loglik, km_cox_max_gap,
	code_version, created_at`

// Migrate creates the archive tables
func (r *ReportRepositoryImpl) Migrate(ctx context.Context) error {
	return r.migrator.Run(ctx, r.db)
}

// SaveRun stores the flattened report and its quartile table in one transaction
func (r *ReportRepositoryImpl) SaveRun(ctx context.Context, report *comparison.Report) error {
	rec := comparison.NewRunRecord(report)
	row := toRow(rec)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO survival_runs (`+runColumns+`)
		VALUES (:run_id, :fingerprint, :sample_size, :failure_shape, :failure_scale, :censoring_rate, :seed,
			:events, :censored_fraction, :aft_intercept, :aft_scale, :aft_loglik, :cox_loglik, :km_cox_max_gap,
			:code_version, :created_at)
	`, row)
	if err != nil {
		return err
	}

	for i, q := range rec.Quartiles.Rows {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO survival_quartiles (run_id, method, position, q1, median, q3)
			VALUES (:run_id, :method, :position, :q1, :median, :q3)
		`, quartileRow{
			RunID:    row.RunID,
			Method:   string(q.Method),
			Position: i,
			Q1:       q.Quartiles.Q1,
			Median:   q.Quartiles.Median,
			Q3:       q.Quartiles.Q3,
		})
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun retrieves an archived run by ID
func (r *ReportRepositoryImpl) GetRun(ctx context.Context, runID core.RunID) (*comparison.RunRecord, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM survival_runs WHERE run_id = $1`, runID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("run", runID.String())
	}
	if err != nil {
		return nil, err
	}

	rec := fromRow(row)
	if err := r.loadQuartiles(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRuns returns archived runs, newest first, optionally limited
func (r *ReportRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*comparison.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM survival_runs ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	records := make([]*comparison.RunRecord, 0, len(rows))
	for _, row := range rows {
		rec := fromRow(row)
		if err := r.loadQuartiles(ctx, rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *ReportRepositoryImpl) loadQuartiles(ctx context.Context, rec *comparison.RunRecord) error {
	var rows []quartileRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, method, position, q1, median, q3
		FROM survival_quartiles
		WHERE run_id = $1
		ORDER BY position
	`, rec.RunID.String())
	if err != nil {
		return err
	}
	for _, q := range rows {
		rec.Quartiles.Set(survival.Method(q.Method), survival.Quartiles{Q1: q.Q1, Median: q.Median, Q3: q.Q3})
	}
	return nil
}

func toRow(rec *comparison.RunRecord) runRow {
	return runRow{
		RunID:            rec.RunID.String(),
		Fingerprint:      rec.Fingerprint.String(),
		SampleSize:       rec.SampleSize,
		FailureShape:     rec.FailureShape,
		FailureScale:     rec.FailureScale,
		CensoringRate:    rec.CensoringRate,
		Seed:             rec.Seed,
		Events:           rec.Events,
		CensoredFraction: rec.CensoredFraction,
		AFTIntercept:     rec.AFTIntercept,
		AFTScale:         rec.AFTScale,
		AFTLogLik:        rec.AFTLogLik,
		CoxLogLik:        rec.CoxLogLik,
		KMCoxMaxGap:      rec.KMCoxMaxGap,
		CodeVersion:      rec.CodeVersion,
		CreatedAt:        rec.CreatedAt.Time(),
	}
}

func fromRow(row runRow) *comparison.RunRecord {
	return &comparison.RunRecord{
		RunID:            core.RunID(row.RunID),
		Fingerprint:      core.Hash(row.Fingerprint),
		SampleSize:       row.SampleSize,
		FailureShape:     row.FailureShape,
		FailureScale:     row.FailureScale,
		CensoringRate:    row.CensoringRate,
		Seed:             row.Seed,
		Events:           row.Events,
		CensoredFraction: row.CensoredFraction,
		AFTIntercept:     row.AFTIntercept,
		AFTScale:         row.AFTScale,
		AFTLogLik:        row.AFTLogLik,
		CoxLogLik:        row.CoxLogLik,
		KMCoxMaxGap:      row.KMCoxMaxGap,
		CodeVersion:      row.CodeVersion,
		CreatedAt:        core.NewTimestamp(row.CreatedAt.UTC()),
	}
}
