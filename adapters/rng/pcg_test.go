package rng

import (
	"context"
	"errors"
	"testing"

	"gosurv/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draws(t *testing.T, n int, next func() float64) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		out[i] = next()
	}
	return out
}

func TestSeededStream_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := NewPCGAdapter()

	r1, err := a.SeededStream(ctx, "failure", 475)
	require.NoError(t, err)
	r2, err := a.SeededStream(ctx, "failure", 475)
	require.NoError(t, err)

	assert.Equal(t, draws(t, 50, r1.Float64), draws(t, 50, r2.Float64))
}

func TestSeededStream_NamesAndSeedsDiffer(t *testing.T) {
	ctx := context.Background()
	a := NewPCGAdapter()

	base, _ := a.SeededStream(ctx, "failure", 475)
	otherName, _ := a.SeededStream(ctx, "censoring", 475)
	otherSeed, _ := a.SeededStream(ctx, "failure", 476)

	want := draws(t, 20, base.Float64)
	assert.NotEqual(t, want, draws(t, 20, otherName.Float64))
	assert.NotEqual(t, want, draws(t, 20, otherSeed.Float64))
}

func TestValidateSeed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPCGAdapter().ValidateSeed(ctx, "failure", 475, []float64{0.5})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsDeterminismError(err))
}

func TestValidateSeed(t *testing.T) {
	ctx := context.Background()
	a := NewPCGAdapter()

	r, _ := a.SeededStream(ctx, "failure", 475)
	recorded := draws(t, 5, r.Float64)

	assert.NoError(t, a.ValidateSeed(ctx, "failure", 475, recorded))

	err := a.ValidateSeed(ctx, "failure", 476, recorded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSeedMismatch))
	assert.True(t, core.IsDeterminismError(err))
}

func TestSeededStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPCGAdapter().SeededStream(ctx, "failure", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
