package testkit

import (
	"context"
	"errors"
	"testing"

	"gosurv/domain/comparison"
	"gosurv/domain/core"
	"gosurv/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.RNGPort          = (*RNGAdapter)(nil)
	_ ports.ReportRepository = (*InMemoryReportRepository)(nil)
	_ ports.ReportSink       = (*RecordingSink)(nil)
)

func TestRNGAdapter_Deterministic(t *testing.T) {
	ctx := context.Background()
	rng := &RNGAdapter{}

	a, err := rng.SeededStream(ctx, "failure", 475)
	require.NoError(t, err)
	b, err := rng.SeededStream(ctx, "failure", 475)
	require.NoError(t, err)

	expected := []float64{a.Float64(), a.Float64(), a.Float64()}
	assert.Equal(t, expected, []float64{b.Float64(), b.Float64(), b.Float64()})

	assert.NoError(t, rng.ValidateSeed(ctx, "failure", 475, expected))
	err = rng.ValidateSeed(ctx, "censoring", 475, expected)
	assert.True(t, errors.Is(err, core.ErrSeedMismatch))
}

func TestInMemoryReportRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryReportRepository()

	_, err := repo.GetRun(ctx, core.NewRunID())
	assert.True(t, core.IsNotFoundError(err))

	for i := 0; i < 3; i++ {
		report := &comparison.Report{RunID: core.NewRunID(), GeneratedAt: core.Now()}
		require.NoError(t, repo.SaveRun(ctx, report))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	all, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rec, err := repo.GetRun(ctx, all[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, all[0].RunID, rec.RunID)
}

func TestRecordingSink(t *testing.T) {
	sink := NewRecordingSink()
	report := &comparison.Report{RunID: core.NewRunID()}

	artifacts, err := sink.Publish(context.Background(), report)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Len(t, sink.Reports(), 1)

	sink.Err = errors.New("boom")
	_, err = sink.Publish(context.Background(), report)
	assert.Error(t, err)
	assert.Len(t, sink.Reports(), 1)
}
