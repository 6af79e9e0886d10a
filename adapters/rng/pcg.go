package rng

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"gosurv/domain/core"
)

// PCGAdapter implements ports.RNGPort on top of math/rand/v2's PCG generator.
// Every stream is fully determined by its seed and name.
type PCGAdapter struct{}

// NewPCGAdapter creates a new PCG-backed RNG adapter
func NewPCGAdapter() *PCGAdapter {
	return &PCGAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *PCGAdapter) SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(seed, hashName(name))), nil
}

// ValidateSeed replays a named stream and compares it with recorded draws
func (a *PCGAdapter) ValidateSeed(ctx context.Context, name string, seed uint64, expected []float64) error {
	r, err := a.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for i, want := range expected {
		if got := r.Float64(); got != want {
			return fmt.Errorf("%w: stream %q draw %d: got %v, expected %v", core.ErrSeedMismatch, name, i, got, want)
		}
	}
	return nil
}

// hashName maps a stream name to the second PCG seed word
func hashName(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
