package app

import (
	"errors"
	"math"
	"testing"

	"gosurv/domain/core"
	"gosurv/domain/survival"
	"gosurv/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGrid(t *testing.T) {
	grid, err := BuildGrid(2, 4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 1, 1.5, 2}, grid, 1e-12)

	grid, err = BuildGrid(3.7, DefaultGridPoints)
	require.NoError(t, err)
	require.Len(t, grid, DefaultGridPoints)
	assert.InDelta(t, 3.7/DefaultGridPoints, grid[0], 1e-12)
	assert.InDelta(t, 3.7, grid[len(grid)-1], 1e-12)
	for i := 1; i < len(grid); i++ {
		assert.Greater(t, grid[i], grid[i-1])
	}
}

func TestBuildGrid_Rejects(t *testing.T) {
	_, err := BuildGrid(1, 1)
	assert.Error(t, err)

	for _, maxTime := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := BuildGrid(maxTime, 10)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrOutsideDomain), "max time %g", maxTime)
	}
}

func TestEvaluate_RejectsNonPositiveTimes(t *testing.T) {
	law := survival.WeibullLaw{Shape: 2, Scale: 1}
	fns := map[survival.Method]survival.SurvivalFunction{survival.MethodTrueWeibull: law}

	_, _, err := evaluate([]float64{0, 1}, []survival.Method{survival.MethodTrueWeibull}, fns)
	assert.True(t, errors.Is(err, core.ErrOutsideDomain))

	surv, hazard, err := evaluate([]float64{0.5, 1}, []survival.Method{survival.MethodTrueWeibull}, fns)
	require.NoError(t, err)
	require.Len(t, surv, 1)
	assert.InDelta(t, math.Exp(-0.25), surv[0].Values[0], 1e-12)
	assert.InDelta(t, 1.0, hazard[0].Values[1], 1e-12)
}

func TestSummarize(t *testing.T) {
	spec := survival.SampleSpec{Size: 4, FailureShape: 2, FailureScale: 1, CensoringRate: 0.5}
	sample, err := survival.NewSample(spec, []survival.Subject{
		{Time: 1, Status: true},
		{Time: 2, Status: false},
		{Time: 3, Status: true},
		{Time: 4, Status: true},
	})
	require.NoError(t, err)

	summary, err := summarize(sample)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.N)
	assert.Equal(t, 3, summary.Events)
	assert.Equal(t, 1, summary.Censored)
	assert.InDelta(t, 0.25, summary.CensoredFraction, 1e-12)
	assert.InDelta(t, 2.5, summary.MeanTime, 1e-12)
	assert.InDelta(t, 2.5, summary.MedianTime, 1e-12)
	assert.Equal(t, 4.0, summary.MaxTime)
}

func TestSummarize_DrawnSample(t *testing.T) {
	kit := testkit.NewTestKit()
	sample, err := kit.DrawSample(t.Context(), 300, 11)
	require.NoError(t, err)

	summary, err := summarize(sample)
	require.NoError(t, err)
	assert.Equal(t, sample.MaxTime(), summary.MaxTime)
	assert.LessOrEqual(t, summary.MedianTime, summary.P90Time)
}
