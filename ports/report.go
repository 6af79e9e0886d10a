package ports

import (
	"context"

	"gosurv/domain/comparison"
	"gosurv/domain/core"
)

// ReportSink publishes a finished comparison report somewhere
type ReportSink interface {
	Name() string
	Publish(ctx context.Context, report *comparison.Report) ([]core.Artifact, error)
}

// ReportRepository archives reports for later retrieval
type ReportRepository interface {
	SaveRun(ctx context.Context, report *comparison.Report) error
	GetRun(ctx context.Context, runID core.RunID) (*comparison.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*comparison.RunRecord, error)
}
