package estimators

import (
	"context"
	"fmt"
	"math"

	"gosurv/domain/core"
	"gosurv/domain/survival"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfLevel is the coverage of the pointwise survival band
const DefaultConfLevel = 0.95

// KaplanMeierEstimator computes the product-limit survival curve with the
// Nelson-Aalen cumulative hazard and Greenwood standard errors
type KaplanMeierEstimator struct {
	ConfLevel float64
}

// NewKaplanMeierEstimator creates an estimator with the given band coverage
func NewKaplanMeierEstimator(confLevel float64) *KaplanMeierEstimator {
	if !(confLevel > 0 && confLevel < 1) {
		confLevel = DefaultConfLevel
	}
	return &KaplanMeierEstimator{ConfLevel: confLevel}
}

// Estimate builds the step curve over the distinct observed times
func (e *KaplanMeierEstimator) Estimate(ctx context.Context, sample *survival.Sample) (*survival.StepCurve, error) {
	if sample == nil || sample.Len() == 0 {
		return nil, fmt.Errorf("%w: empty sample", core.ErrInsufficientData)
	}
	if sample.Events() == 0 {
		return nil, fmt.Errorf("%w: no observed failures", core.ErrDegenerateSample)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	z := criticalValue(e.ConfLevel)
	groups := riskTable(sample)
	curve := &survival.StepCurve{
		Method:    survival.MethodKaplanMeier,
		ConfLevel: e.ConfLevel,
		Points:    make([]survival.StepPoint, 0, len(groups)),
	}

	s, h, greenwood := 1.0, 0.0, 0.0
	for _, g := range groups {
		if g.events > 0 {
			n, d := float64(g.atRisk), float64(g.events)
			s *= 1 - d/n
			h += d / n
			if g.atRisk > g.events {
				greenwood += d / (n * (n - d))
			} else {
				greenwood = math.Inf(1)
			}
		}

		pt := survival.StepPoint{
			Time:      g.time,
			AtRisk:    g.atRisk,
			Events:    g.events,
			Censored:  g.censored,
			Survival:  s,
			CumHazard: h,
		}
		if s > 0 {
			seLog := math.Sqrt(greenwood)
			pt.StdErr = s * seLog
			pt.Lower, pt.Upper = logConfidenceBand(s, seLog, z)
		}
		curve.Points = append(curve.Points, pt)
	}
	return curve, nil
}

// criticalValue returns the two-sided standard normal quantile for a coverage
func criticalValue(confLevel float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-confLevel)/2)
}
