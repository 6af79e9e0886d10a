package survival

import (
	"fmt"
	"math"

	"gosurv/domain/core"
)

// Subject is one observed follow-up record
type Subject struct {
	Time   float64 `json:"time"`   // min(failure, censoring), always > 0
	Status bool    `json:"status"` // true when the failure was observed
}

// SampleSpec fixes the generating laws and the seed of a simulated sample
type SampleSpec struct {
	Size          int     `json:"size"`
	FailureShape  float64 `json:"failure_shape"`
	FailureScale  float64 `json:"failure_scale"`
	CensoringRate float64 `json:"censoring_rate"`
	Seed          uint64  `json:"seed"`
}

// Default simulation constants
const (
	DefaultSampleSize    = 1000
	DefaultFailureShape  = 2.0
	DefaultFailureScale  = 1.0
	DefaultCensoringRate = 0.5
	DefaultSeed          = 475
)

// Named random streams. Each law draws from its own stream seeded by the spec seed.
const (
	FailureStream   = "failure"
	CensoringStream = "censoring"
)

// DefaultSampleSpec returns the fixed run: n=1000, Weibull(2, 1) failures,
// Exponential(0.5) censoring, seed 475.
func DefaultSampleSpec() SampleSpec {
	return SampleSpec{
		Size:          DefaultSampleSize,
		FailureShape:  DefaultFailureShape,
		FailureScale:  DefaultFailureScale,
		CensoringRate: DefaultCensoringRate,
		Seed:          DefaultSeed,
	}
}

// Validate checks that every parameter is in range
func (s SampleSpec) Validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", core.ErrInvalidSpec, s.Size)
	}
	if !positiveFinite(s.FailureShape) {
		return fmt.Errorf("%w: failure shape must be positive, got %g", core.ErrInvalidSpec, s.FailureShape)
	}
	if !positiveFinite(s.FailureScale) {
		return fmt.Errorf("%w: failure scale must be positive, got %g", core.ErrInvalidSpec, s.FailureScale)
	}
	if !positiveFinite(s.CensoringRate) {
		return fmt.Errorf("%w: censoring rate must be positive, got %g", core.ErrInvalidSpec, s.CensoringRate)
	}
	return nil
}

// Parameters returns the spec as a flat map for hashing and logging
func (s SampleSpec) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"size":           s.Size,
		"failure_shape":  s.FailureShape,
		"failure_scale":  s.FailureScale,
		"censoring_rate": s.CensoringRate,
		"seed":           s.Seed,
	}
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Method names one of the four compared survival estimates
type Method string

const (
	MethodKaplanMeier Method = "kaplan_meier"
	MethodCox         Method = "cox_ph"
	MethodWeibullAFT  Method = "weibull_aft"
	MethodTrueWeibull Method = "true_weibull"
)

// Methods lists the compared methods in report order
var Methods = []Method{MethodKaplanMeier, MethodCox, MethodWeibullAFT, MethodTrueWeibull}

// Label returns the display name used in plots and tables
func (m Method) Label() string {
	switch m {
	case MethodKaplanMeier:
		return "Kaplan-Meier"
	case MethodCox:
		return "Cox PH"
	case MethodWeibullAFT:
		return "Weibull AFT"
	case MethodTrueWeibull:
		return "True Weibull"
	default:
		return string(m)
	}
}

// IsStep reports whether the method produces a step function
func (m Method) IsStep() bool {
	return m == MethodKaplanMeier || m == MethodCox
}

// SurvivalFunction is the common view over fitted and reference curves.
// All implementations return NaN for t <= 0.
type SurvivalFunction interface {
	Survival(t float64) float64
	CumulativeHazard(t float64) float64
	Quantile(p float64) float64
}

// Covariates holds one row per subject, in sample order
type Covariates struct {
	Names []string
	Rows  [][]float64
}

// Width returns the number of covariate columns
func (c *Covariates) Width() int {
	if c == nil {
		return 0
	}
	return len(c.Names)
}

// Validate checks the covariate block against a sample size
func (c *Covariates) Validate(n int) error {
	if c == nil {
		return nil
	}
	if len(c.Rows) != n {
		return core.NewValidationError("covariates", fmt.Sprintf("expected %d rows, got %d", n, len(c.Rows)))
	}
	for i, row := range c.Rows {
		if len(row) != len(c.Names) {
			return core.NewValidationError("covariates", fmt.Sprintf("row %d has %d values, expected %d", i, len(row), len(c.Names)))
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.NewValidationError("covariates", fmt.Sprintf("row %d contains a non-finite value", i))
			}
		}
	}
	return nil
}
