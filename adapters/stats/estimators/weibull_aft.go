package estimators

import (
	"context"
	"fmt"
	"math"

	"gosurv/domain/core"
	"gosurv/domain/survival"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// eulerGamma is the negated mean of the standard minimum extreme value law
const eulerGamma = 0.5772156649015329

// WeibullAFTFitter fits log T = x·beta + scale·W with W standard minimum
// extreme value by maximum likelihood
type WeibullAFTFitter struct {
	GradientThreshold float64
	MaxIterations     int
}

// NewWeibullAFTFitter creates a fitter with default optimizer settings
func NewWeibullAFTFitter() *WeibullAFTFitter {
	return &WeibullAFTFitter{GradientThreshold: 1e-8, MaxIterations: 500}
}

// aftProblem holds the log times, statuses and design of one fit
type aftProblem struct {
	logT   []float64
	status []float64
	x      [][]float64
}

// negLogLik evaluates the negative log-likelihood at theta = (beta, log scale)
func (a *aftProblem) negLogLik(theta []float64) float64 {
	p := len(theta) - 1
	logScale := theta[p]
	scale := math.Exp(logScale)
	ll := 0.0
	for i, lt := range a.logT {
		z := (lt - dot(a.x[i], theta[:p])) / scale
		ll += a.status[i]*(z-logScale-lt) - math.Exp(z)
	}
	if math.IsNaN(ll) {
		return math.Inf(1)
	}
	return -ll
}

// gradNegLogLik writes the analytic gradient of negLogLik into grad
func (a *aftProblem) gradNegLogLik(grad, theta []float64) {
	p := len(theta) - 1
	scale := math.Exp(theta[p])
	for j := range grad {
		grad[j] = 0
	}
	for i, lt := range a.logT {
		z := (lt - dot(a.x[i], theta[:p])) / scale
		r := a.status[i] - math.Exp(z)
		// d(-ll)/d(beta) = x r / scale, d(-ll)/d(log scale) = d + z r
		floats.AddScaled(grad[:p], r/scale, a.x[i])
		grad[p] += a.status[i] + z*r
	}
}

// FitAFT estimates the coefficients and the log scale. Standard errors come
// from the inverse of a finite-difference Hessian of the negative log-likelihood.
func (f *WeibullAFTFitter) FitAFT(ctx context.Context, sample *survival.Sample, covariates *survival.Covariates) (*survival.AFTFit, error) {
	if sample == nil || sample.Len() == 0 {
		return nil, fmt.Errorf("%w: empty sample", core.ErrInsufficientData)
	}
	if sample.Events() == 0 {
		return nil, fmt.Errorf("%w: no observed failures", core.ErrDegenerateSample)
	}
	if err := covariates.Validate(sample.Len()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x, names := designMatrix(sample.Len(), covariates, true)
	prob := &aftProblem{
		logT:   make([]float64, sample.Len()),
		status: make([]float64, sample.Len()),
		x:      x,
	}
	for i := 0; i < sample.Len(); i++ {
		s := sample.Subject(i)
		prob.logT[i] = math.Log(s.Time)
		if s.Status {
			prob.status[i] = 1
		}
	}

	init := initialTheta(prob.logT, len(names))
	settings := &optimize.Settings{
		GradientThreshold: f.GradientThreshold,
		MajorIterations:   f.MaxIterations,
	}
	result, err := optimize.Minimize(optimize.Problem{
		Func: prob.negLogLik,
		Grad: prob.gradNegLogLik,
	}, init, settings, &optimize.BFGS{})
	if result == nil {
		return nil, fmt.Errorf("%w: weibull aft: %v", core.ErrNotConverged, err)
	}
	theta := result.Location.X
	if err != nil || result.Status.Early() {
		// A line search can stall once the gradient is already negligible
		grad := make([]float64, len(theta))
		prob.gradNegLogLik(grad, theta)
		if floats.Norm(grad, math.Inf(1)) > 1e-4 {
			return nil, fmt.Errorf("%w: weibull aft stopped with status %v: %v", core.ErrNotConverged, result.Status, err)
		}
	}

	stdErr, err := hessianStdErr(prob.negLogLik, theta)
	if err != nil {
		return nil, err
	}

	p := len(names)
	coefs := make([]float64, p)
	copy(coefs, theta[:p])
	return &survival.AFTFit{
		Coefficients:     coefs,
		CoefficientNames: names,
		LogScale:         theta[p],
		Scale:            math.Exp(theta[p]),
		StdErr:           stdErr,
		LogLikelihood:    -prob.negLogLik(theta),
		Iterations:       result.Stats.MajorIterations,
		N:                sample.Len(),
		Events:           sample.Events(),
	}, nil
}

// initialTheta starts from the uncensored extreme value moments:
// sd(log T) = scale·pi/sqrt(6) and mean(log T) = intercept - gamma·scale
func initialTheta(logT []float64, p int) []float64 {
	mean, sd := stat.MeanStdDev(logT, nil)
	scale := sd * math.Sqrt(6) / math.Pi
	if !(scale > 0) {
		scale = 1
	}
	theta := make([]float64, p+1)
	theta[0] = mean + eulerGamma*scale
	theta[p] = math.Log(scale)
	return theta
}

// hessianStdErr inverts the numerical Hessian at the optimum
func hessianStdErr(fn func([]float64) float64, theta []float64) ([]float64, error) {
	var hess mat.SymDense
	fd.Hessian(&hess, fn, theta, &fd.Settings{Formula: fd.Central})

	var chol mat.Cholesky
	if ok := chol.Factorize(&hess); !ok {
		return nil, fmt.Errorf("%w: weibull aft hessian", core.ErrSingular)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingular, err)
	}
	se := make([]float64, len(theta))
	for i := range se {
		se[i] = math.Sqrt(cov.At(i, i))
	}
	return se, nil
}
