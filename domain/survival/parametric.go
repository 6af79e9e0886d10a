package survival

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// WeibullAFTCurve is the closed-form survival law of a fitted AFT model for
// one covariate profile
type WeibullAFTCurve struct {
	LinearPredictor float64
	Scale           float64
}

// AFTCurve builds the curve for covariate row x (without the intercept column).
// A nil row selects the intercept-only profile.
func AFTCurve(fit *AFTFit, x []float64) WeibullAFTCurve {
	mu := fit.Coefficients[0]
	for j, v := range x {
		if j+1 < len(fit.Coefficients) {
			mu += fit.Coefficients[j+1] * v
		}
	}
	return WeibullAFTCurve{LinearPredictor: mu, Scale: fit.Scale}
}

func (c WeibullAFTCurve) z(t float64) float64 {
	return (math.Log(t) - c.LinearPredictor) / c.Scale
}

// Survival returns exp(-exp(z)); NaN outside t > 0
func (c WeibullAFTCurve) Survival(t float64) float64 {
	if !(t > 0) {
		return math.NaN()
	}
	return math.Exp(-math.Exp(c.z(t)))
}

// CumulativeHazard returns exp(z); NaN outside t > 0
func (c WeibullAFTCurve) CumulativeHazard(t float64) float64 {
	if !(t > 0) {
		return math.NaN()
	}
	return math.Exp(c.z(t))
}

// Quantile returns the time by which a fraction p has failed
func (c WeibullAFTCurve) Quantile(p float64) float64 {
	if !(p > 0 && p < 1) {
		return math.NaN()
	}
	return math.Exp(c.LinearPredictor + c.Scale*math.Log(-math.Log1p(-p)))
}

// WeibullLaw is the generating failure law, used as ground truth
type WeibullLaw struct {
	Shape float64
	Scale float64
}

func (w WeibullLaw) dist() distuv.Weibull {
	return distuv.Weibull{K: w.Shape, Lambda: w.Scale}
}

// Survival returns 1 - F(t); NaN outside t > 0
func (w WeibullLaw) Survival(t float64) float64 {
	if !(t > 0) {
		return math.NaN()
	}
	return w.dist().Survival(t)
}

// CumulativeHazard returns -ln S(t) = (t/scale)^shape; NaN outside t > 0
func (w WeibullLaw) CumulativeHazard(t float64) float64 {
	if !(t > 0) {
		return math.NaN()
	}
	return -w.dist().LogSurvival(t)
}

// Quantile returns the time by which a fraction p has failed
func (w WeibullLaw) Quantile(p float64) float64 {
	if !(p > 0 && p < 1) {
		return math.NaN()
	}
	return w.dist().Quantile(p)
}
