package survival

import (
	"fmt"
	"math"

	"gosurv/domain/core"
)

// Sample is an immutable, ordered set of subjects drawn under a SampleSpec
type Sample struct {
	spec     SampleSpec
	subjects []Subject
}

// NewSample copies subjects into a new sample. Every time must be finite and
// positive and the number of subjects must match spec.Size.
func NewSample(spec SampleSpec, subjects []Subject) (*Sample, error) {
	if len(subjects) != spec.Size {
		return nil, core.NewValidationError("sample", fmt.Sprintf("expected %d subjects, got %d", spec.Size, len(subjects)))
	}
	for i, s := range subjects {
		if !(s.Time > 0) || math.IsInf(s.Time, 0) {
			return nil, fmt.Errorf("%w: subject %d has time %g", core.ErrOutsideDomain, i, s.Time)
		}
	}

	copied := make([]Subject, len(subjects))
	copy(copied, subjects)
	return &Sample{spec: spec, subjects: copied}, nil
}

// Spec returns the generating specification
func (s *Sample) Spec() SampleSpec { return s.spec }

// Len returns the number of subjects
func (s *Sample) Len() int { return len(s.subjects) }

// Subject returns the i-th subject
func (s *Sample) Subject(i int) Subject { return s.subjects[i] }

// Times returns a copy of the observed follow-up times
func (s *Sample) Times() []float64 {
	out := make([]float64, len(s.subjects))
	for i, sub := range s.subjects {
		out[i] = sub.Time
	}
	return out
}

// Statuses returns a copy of the event indicators
func (s *Sample) Statuses() []bool {
	out := make([]bool, len(s.subjects))
	for i, sub := range s.subjects {
		out[i] = sub.Status
	}
	return out
}

// Events counts observed failures
func (s *Sample) Events() int {
	n := 0
	for _, sub := range s.subjects {
		if sub.Status {
			n++
		}
	}
	return n
}

// Censored counts censored subjects
func (s *Sample) Censored() int {
	return len(s.subjects) - s.Events()
}

// CensoredFraction is the share of subjects whose failure was not observed
func (s *Sample) CensoredFraction() float64 {
	if len(s.subjects) == 0 {
		return 0
	}
	return float64(s.Censored()) / float64(len(s.subjects))
}

// MaxTime returns the largest observed follow-up time
func (s *Sample) MaxTime() float64 {
	max := 0.0
	for _, sub := range s.subjects {
		if sub.Time > max {
			max = sub.Time
		}
	}
	return max
}

// Equal reports whether two samples hold identical records in the same order
func (s *Sample) Equal(other *Sample) bool {
	if other == nil || len(s.subjects) != len(other.subjects) {
		return false
	}
	for i := range s.subjects {
		if s.subjects[i] != other.subjects[i] {
			return false
		}
	}
	return true
}
