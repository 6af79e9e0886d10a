package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound = errors.New("resource not found")

	// Validation errors
	ErrInvalidSpec      = errors.New("invalid sample specification")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateSample = errors.New("degenerate sample")
	ErrOutsideDomain    = errors.New("time outside the domain t > 0")

	// Fitting errors
	ErrNotConverged = errors.New("model fit did not converge")
	ErrSingular     = errors.New("information matrix is singular")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewDomainError(t float64) error {
	return fmt.Errorf("%w: t=%g", ErrOutsideDomain, t)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrSeedMismatch) || errors.Is(err, ErrHashMismatch)
}
