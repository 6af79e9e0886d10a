package survival

import "math"

// InterceptName labels the constant column of an AFT design
const InterceptName = "(Intercept)"

// AFTFit is a maximum-likelihood Weibull accelerated failure time fit.
// StdErr has one entry per coefficient followed by the entry for LogScale.
type AFTFit struct {
	Coefficients     []float64 `json:"coefficients"`
	CoefficientNames []string  `json:"coefficient_names"`
	LogScale         float64   `json:"log_scale"`
	Scale            float64   `json:"scale"`
	StdErr           []float64 `json:"std_err"`
	LogLikelihood    float64   `json:"log_likelihood"`
	Iterations       int       `json:"iterations"`
	N                int       `json:"n"`
	Events           int       `json:"events"`
}

// Intercept returns the coefficient of the constant column
func (f *AFTFit) Intercept() float64 {
	for i, name := range f.CoefficientNames {
		if name == InterceptName {
			return f.Coefficients[i]
		}
	}
	return math.NaN()
}

// Shape returns the equivalent Weibull shape 1/scale
func (f *AFTFit) Shape() float64 {
	return 1 / f.Scale
}

// WeibullScale returns the equivalent Weibull scale exp(intercept)
func (f *AFTFit) WeibullScale() float64 {
	return math.Exp(f.Intercept())
}

// LogScaleStdErr returns the standard error of log(scale)
func (f *AFTFit) LogScaleStdErr() float64 {
	if len(f.StdErr) == 0 {
		return math.NaN()
	}
	return f.StdErr[len(f.StdErr)-1]
}

// CoxFit is a Cox proportional hazards fit. Baseline is evaluated at the
// covariate means; with no covariates it is the plain baseline estimate.
type CoxFit struct {
	Coefficients      []float64  `json:"coefficients"`
	CoefficientNames  []string   `json:"coefficient_names"`
	StdErr            []float64  `json:"std_err"`
	Means             []float64  `json:"means"`
	LogLikelihood     float64    `json:"log_likelihood"`
	NullLogLikelihood float64    `json:"null_log_likelihood"`
	Iterations        int        `json:"iterations"`
	N                 int        `json:"n"`
	Events            int        `json:"events"`
	Baseline          *StepCurve `json:"baseline"`
}

// HazardRatios returns exp(beta) per coefficient
func (f *CoxFit) HazardRatios() []float64 {
	out := make([]float64, len(f.Coefficients))
	for i, b := range f.Coefficients {
		out[i] = math.Exp(b)
	}
	return out
}

// LikelihoodRatio returns the likelihood-ratio statistic against the null model
func (f *CoxFit) LikelihoodRatio() float64 {
	return 2 * (f.LogLikelihood - f.NullLogLikelihood)
}
