package app

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gosurv/domain/core"
	"gosurv/domain/run"
	"gosurv/domain/survival"
	apperrors "gosurv/internal/errors"
	"gosurv/internal/testkit"
	"gosurv/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(kit *testkit.TestKit) *ComparisonService {
	return NewComparisonService(ComparisonDeps{
		Sampler:   kit.Sampler(),
		RNG:       kit.RNGAdapter(),
		Estimator: kit.Estimator(),
		AFT:       kit.AFTFitter(),
		Cox:       kit.CoxFitter(),
		Sinks:     []ports.ReportSink{kit.Sink()},
		Repo:      kit.ReportRepository(),
		ConfLevel: 0.95,
	})
}

func TestComparisonService_DefaultRun(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := newTestService(kit)
	ctx := context.Background()

	report, err := svc.Run(ctx, ComparisonRequest{Spec: survival.DefaultSampleSpec()})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1000, report.Sample.N)
	assert.InDelta(t, 0.34, report.Sample.CensoredFraction, 0.06)

	// grid
	require.Len(t, report.Grid, DefaultGridPoints)
	assert.InDelta(t, report.Sample.MaxTime/DefaultGridPoints, report.Grid[0], 1e-12)
	assert.InDelta(t, report.Sample.MaxTime, report.Grid[len(report.Grid)-1], 1e-12)

	// one series per method, each covering the grid
	require.Len(t, report.Survival, len(survival.Methods))
	require.Len(t, report.CumulativeHazard, len(survival.Methods))
	for i, m := range survival.Methods {
		assert.Equal(t, m, report.Survival[i].Method)
		assert.Len(t, report.Survival[i].Values, DefaultGridPoints)
		assert.Len(t, report.CumulativeHazard[i].Values, DefaultGridPoints)
	}

	truth, ok := report.SurvivalSeries(survival.MethodTrueWeibull)
	require.True(t, ok)
	for i, tm := range report.Grid {
		assert.InDelta(t, math.Exp(-tm*tm), truth.Values[i], 1e-12)
	}

	// Cox without covariates reproduces Kaplan-Meier
	assert.InDelta(t, 0.0, report.MaxKMCoxGap(), 1e-12)
	km, _ := report.SurvivalSeries(survival.MethodKaplanMeier)
	cox, _ := report.SurvivalSeries(survival.MethodCox)
	assert.InDeltaSlice(t, km.Values, cox.Values, 1e-12)

	// 4x3 quartile table close to the true law
	require.Len(t, report.Quartiles.Rows, 4)
	law := survival.WeibullLaw{Shape: 2, Scale: 1}
	want := survival.QuartilesOf(law)
	for _, row := range report.Quartiles.Rows {
		require.True(t, row.Quartiles.Defined(), "method %s", row.Method)
		got := row.Quartiles.Values()
		for j, w := range want.Values() {
			assert.InDelta(t, w, got[j], 0.12, "method %s quartile %d", row.Method, j)
		}
	}
	trueRow, ok := report.Quartiles.Get(survival.MethodTrueWeibull)
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt(math.Log(2)), trueRow.Median, 1e-9)

	// manifest
	require.NotNil(t, report.Manifest)
	assert.NoError(t, report.Manifest.Validate())
	assert.Equal(t, uint64(475), report.Manifest.Spec.Seed)

	// published and archived
	require.Len(t, kit.Sink().Reports(), 1)
	assert.Same(t, report, kit.Sink().Reports()[0])
	require.Len(t, report.Artifacts, 1)
	assert.Equal(t, core.ArtifactRunManifest, report.Artifacts[0].Kind)

	rec, err := kit.ReportRepository().GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1000, rec.SampleSize)
}

func TestComparisonService_Deterministic(t *testing.T) {
	ctx := context.Background()
	spec := survival.DefaultSampleSpec()
	spec.Size = 300

	first, err := newTestService(testkit.NewTestKit()).Run(ctx, ComparisonRequest{Spec: spec, GridPoints: 50})
	require.NoError(t, err)
	second, err := newTestService(testkit.NewTestKit()).Run(ctx, ComparisonRequest{Spec: spec, GridPoints: 50})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.True(t, first.Manifest.Matches(second.Manifest))
	assert.Equal(t, first.Grid, second.Grid)
	assert.Equal(t, first.Quartiles, second.Quartiles)
}

func TestComparisonService_SuppliedSample(t *testing.T) {
	kit := testkit.NewTestKit()
	ctx := context.Background()

	sample, err := kit.DrawSample(ctx, 250, 7)
	require.NoError(t, err)

	runID := core.NewRunID()
	report, err := newTestService(kit).Run(ctx, ComparisonRequest{Sample: sample, GridPoints: 25, RunID: runID})
	require.NoError(t, err)

	assert.Equal(t, runID, report.RunID)
	assert.Equal(t, 250, report.Sample.N)
	assert.Equal(t, uint64(7), report.Manifest.Spec.Seed)
	assert.Len(t, report.Grid, 25)
	assert.InDelta(t, sample.MaxTime(), report.Grid[24], 1e-12)

	assert.Equal(t, run.SourceInput, report.Manifest.Source)
	assert.Equal(t, run.HashSample(sample), report.Manifest.Fingerprint.InputHash)
	assert.Empty(t, report.Manifest.StreamChecks)
	assert.False(t, report.Manifest.Replayable())

	simulated, err := newTestService(kit).Run(ctx, ComparisonRequest{Spec: sample.Spec(), GridPoints: 25})
	require.NoError(t, err)
	assert.False(t, report.Manifest.Matches(simulated.Manifest))
}

func TestComparisonService_InvalidSpec(t *testing.T) {
	kit := testkit.NewTestKit()
	spec := survival.DefaultSampleSpec()
	spec.Size = 0

	_, err := newTestService(kit).Run(context.Background(), ComparisonRequest{Spec: spec})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidSpec))
	assert.Empty(t, kit.Sink().Reports())
}

func TestComparisonService_SinkFailureSkipsArchive(t *testing.T) {
	kit := testkit.NewTestKit()
	sinkErr := errors.New("disk full")
	kit.Sink().Err = sinkErr
	spec := survival.DefaultSampleSpec()
	spec.Size = 200

	report, err := newTestService(kit).Run(context.Background(), ComparisonRequest{Spec: spec, GridPoints: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sinkErr))
	require.NotNil(t, report)

	runs, err := kit.ReportRepository().ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestComparisonService_WithoutRepository(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := NewComparisonService(ComparisonDeps{
		Sampler:   kit.Sampler(),
		Estimator: kit.Estimator(),
		AFT:       kit.AFTFitter(),
		Cox:       kit.CoxFitter(),
		ConfLevel: 0.95,
	})
	spec := survival.DefaultSampleSpec()
	spec.Size = 200

	report, err := svc.Run(context.Background(), ComparisonRequest{Spec: spec, GridPoints: 20})
	require.NoError(t, err)
	assert.Empty(t, report.Artifacts)
	assert.Empty(t, report.Manifest.StreamChecks)
	assert.Error(t, svc.Verify(context.Background(), report.Manifest))
}

func TestComparisonService_RecordsStreamChecks(t *testing.T) {
	kit := testkit.NewTestKit()
	ctx := context.Background()
	spec := survival.DefaultSampleSpec()
	spec.Size = 200

	report, err := newTestService(kit).Run(ctx, ComparisonRequest{Spec: spec, GridPoints: 20})
	require.NoError(t, err)

	m := report.Manifest
	assert.Equal(t, run.SourceSimulated, m.Source)
	require.Len(t, m.StreamChecks, 2)
	assert.Equal(t, survival.FailureStream, m.StreamChecks[0].Name)
	assert.Equal(t, survival.CensoringStream, m.StreamChecks[1].Name)

	src, err := kit.RNGAdapter().SeededStream(ctx, survival.FailureStream, spec.Seed)
	require.NoError(t, err)
	require.Len(t, m.StreamChecks[0].Draws, run.StreamCheckDraws)
	for _, d := range m.StreamChecks[0].Draws {
		assert.Equal(t, src.Float64(), d)
	}
}

func TestComparisonService_Verify(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := newTestService(kit)
	ctx := context.Background()
	spec := survival.DefaultSampleSpec()
	spec.Size = 200

	report, err := svc.Run(ctx, ComparisonRequest{Spec: spec, GridPoints: 20})
	require.NoError(t, err)

	t.Run("round trip through json", func(t *testing.T) {
		data, err := json.Marshal(report.Manifest)
		require.NoError(t, err)
		var loaded run.RunManifest
		require.NoError(t, json.Unmarshal(data, &loaded))
		assert.NoError(t, svc.Verify(ctx, &loaded))
	})

	t.Run("altered draws", func(t *testing.T) {
		tampered := *report.Manifest
		tampered.StreamChecks = []run.StreamCheck{{
			Name:  survival.CensoringStream,
			Draws: append([]float64{0.5}, report.Manifest.StreamChecks[1].Draws[1:]...),
		}}
		err := svc.Verify(ctx, &tampered)
		assert.True(t, errors.Is(err, core.ErrSeedMismatch))
		assert.Equal(t, apperrors.CodeReplayMismatch, apperrors.GetCode(apperrors.FromDomain(err)))
	})

	t.Run("altered seed", func(t *testing.T) {
		tampered := *report.Manifest
		tampered.Spec.Seed = 476
		err := svc.Verify(ctx, &tampered)
		assert.True(t, errors.Is(err, core.ErrHashMismatch))
	})

	t.Run("supplied sample", func(t *testing.T) {
		sample, err := kit.DrawSample(ctx, 100, 3)
		require.NoError(t, err)
		supplied, err := svc.Run(ctx, ComparisonRequest{Sample: sample, GridPoints: 20})
		require.NoError(t, err)

		err = svc.Verify(ctx, supplied.Manifest)
		require.Error(t, err)
		assert.False(t, core.IsDeterminismError(err))
		assert.Contains(t, err.Error(), "cannot be replayed")
	})
}
