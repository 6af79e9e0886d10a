package estimators

import (
	"context"
	"fmt"
	"math"

	"gosurv/domain/core"
	"gosurv/domain/survival"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Cox fitting defaults
const (
	DefaultCoxTolerance     = 1e-9
	DefaultCoxMaxIterations = 20
	maxStepHalvings         = 30
)

// CoxPHFitter fits a proportional hazards model by maximising the Breslow
// partial likelihood with Newton-Raphson
type CoxPHFitter struct {
	Tolerance     float64
	MaxIterations int
	ConfLevel     float64
}

// NewCoxPHFitter creates a fitter with default tolerance and iteration limit
func NewCoxPHFitter(confLevel float64) *CoxPHFitter {
	if !(confLevel > 0 && confLevel < 1) {
		confLevel = DefaultConfLevel
	}
	return &CoxPHFitter{
		Tolerance:     DefaultCoxTolerance,
		MaxIterations: DefaultCoxMaxIterations,
		ConfLevel:     confLevel,
	}
}

// partialState is the partial likelihood and its derivatives at one beta
type partialState struct {
	logLik   float64
	score    []float64
	info     *mat.SymDense // nil without covariates
	riskSums []float64     // sum of exp(eta) over each group's risk set
}

// FitCox fits the model. Covariates are centred at their means, so the
// baseline curve describes a subject with average covariates. Without
// covariates no iteration is needed and the baseline is the product-limit
// estimate built from the Breslow hazard increments.
func (f *CoxPHFitter) FitCox(ctx context.Context, sample *survival.Sample, covariates *survival.Covariates) (*survival.CoxFit, error) {
	if sample == nil || sample.Len() == 0 {
		return nil, fmt.Errorf("%w: empty sample", core.ErrInsufficientData)
	}
	if sample.Events() == 0 {
		return nil, fmt.Errorf("%w: no observed failures", core.ErrDegenerateSample)
	}
	if err := covariates.Validate(sample.Len()); err != nil {
		return nil, err
	}

	x, names := designMatrix(sample.Len(), covariates, false)
	p := len(names)
	means := columnMeans(x, p)
	for _, row := range x {
		floats.Sub(row, means)
	}
	groups := riskTable(sample)

	beta := make([]float64, p)
	state := partialLikelihood(groups, x, beta)
	nullLogLik := state.logLik

	iterations := 0
	if p > 0 {
		converged := false
		for iterations < f.MaxIterations {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			iterations++

			step, err := newtonStep(state)
			if err != nil {
				return nil, err
			}

			candidate := make([]float64, p)
			floats.AddTo(candidate, beta, step)
			next := partialLikelihood(groups, x, candidate)
			for h := 0; h < maxStepHalvings && !(next.logLik >= state.logLik); h++ {
				floats.Scale(0.5, step)
				floats.AddTo(candidate, beta, step)
				next = partialLikelihood(groups, x, candidate)
			}

			change := math.Abs(next.logLik - state.logLik)
			beta, state = candidate, next
			if change <= f.Tolerance*math.Max(1, math.Abs(state.logLik)) {
				converged = true
				break
			}
		}
		if !converged {
			return nil, fmt.Errorf("%w: cox partial likelihood after %d iterations", core.ErrNotConverged, iterations)
		}
	}

	stdErr, err := coxStdErr(state)
	if err != nil {
		return nil, err
	}

	return &survival.CoxFit{
		Coefficients:      beta,
		CoefficientNames:  names,
		StdErr:            stdErr,
		Means:             means,
		LogLikelihood:     state.logLik,
		NullLogLikelihood: nullLogLik,
		Iterations:        iterations,
		N:                 sample.Len(),
		Events:            sample.Events(),
		Baseline:          f.baseline(groups, state.riskSums),
	}, nil
}

// partialLikelihood walks the groups from the latest time backwards so each
// risk set sum is accumulated once
func partialLikelihood(groups []riskGroup, x [][]float64, beta []float64) partialState {
	p := len(beta)
	st := partialState{score: make([]float64, p), riskSums: make([]float64, len(groups))}

	var s2, info [][]float64
	if p > 0 {
		s2, info = square(p), square(p)
	}
	s1 := make([]float64, p)
	mean := make([]float64, p)
	s0 := 0.0

	for k := len(groups) - 1; k >= 0; k-- {
		g := groups[k]
		for _, idx := range g.members {
			w := math.Exp(dot(x[idx], beta))
			s0 += w
			floats.AddScaled(s1, w, x[idx])
			for a := 0; a < p; a++ {
				for b := 0; b <= a; b++ {
					s2[a][b] += w * x[idx][a] * x[idx][b]
				}
			}
		}
		st.riskSums[k] = s0
		if g.events == 0 {
			continue
		}

		d := float64(g.events)
		for _, idx := range g.members[:g.events] {
			st.logLik += dot(x[idx], beta)
			floats.Add(st.score, x[idx])
		}
		st.logLik -= d * math.Log(s0)
		floats.ScaleTo(mean, 1/s0, s1)
		floats.AddScaled(st.score, -d, mean)
		for a := 0; a < p; a++ {
			for b := 0; b <= a; b++ {
				info[a][b] += d * (s2[a][b]/s0 - mean[a]*mean[b])
			}
		}
	}

	if p > 0 {
		st.info = mat.NewSymDense(p, nil)
		for a := 0; a < p; a++ {
			for b := 0; b <= a; b++ {
				st.info.SetSym(a, b, info[a][b])
			}
		}
	}
	return st
}

// newtonStep solves info * step = score
func newtonStep(st partialState) ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(st.info); !ok {
		return nil, fmt.Errorf("%w: cox information matrix", core.ErrSingular)
	}
	step := mat.NewVecDense(len(st.score), nil)
	if err := chol.SolveVecTo(step, mat.NewVecDense(len(st.score), st.score)); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingular, err)
	}
	return step.RawVector().Data, nil
}

func coxStdErr(st partialState) ([]float64, error) {
	if st.info == nil {
		return []float64{}, nil
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(st.info); !ok {
		return nil, fmt.Errorf("%w: cox information matrix", core.ErrSingular)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingular, err)
	}
	se := make([]float64, st.info.SymmetricDim())
	for i := range se {
		se[i] = math.Sqrt(cov.At(i, i))
	}
	return se, nil
}

// baseline accumulates the Breslow hazard increments d/riskSum. Survival is
// the product of (1 - increment), which makes the no-covariate baseline
// coincide with the Kaplan-Meier curve.
func (f *CoxPHFitter) baseline(groups []riskGroup, riskSums []float64) *survival.StepCurve {
	z := criticalValue(f.ConfLevel)
	curve := &survival.StepCurve{
		Method:    survival.MethodCox,
		ConfLevel: f.ConfLevel,
		Points:    make([]survival.StepPoint, 0, len(groups)),
	}

	s, h, variance := 1.0, 0.0, 0.0
	for k, g := range groups {
		if g.events > 0 {
			d := float64(g.events)
			dH := d / riskSums[k]
			h += dH
			s *= math.Max(0, 1-dH)
			variance += d / (riskSums[k] * riskSums[k])
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
			seLog := math.Sqrt(variance)
			pt.StdErr = s * seLog
			pt.Lower, pt.Upper = logConfidenceBand(s, seLog, z)
		}
		curve.Points = append(curve.Points, pt)
	}
	return curve
}

func square(p int) [][]float64 {
	m := make([][]float64, p)
	for i := range m {
		m[i] = make([]float64, p)
	}
	return m
}
