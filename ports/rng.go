package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error)

	// ValidateSeed replays a named stream and compares it with recorded draws
	ValidateSeed(ctx context.Context, name string, seed uint64, expected []float64) error
}
