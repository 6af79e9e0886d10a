package app

import (
	"fmt"
	"math"

	"gosurv/domain/comparison"
	"gosurv/domain/core"
	"gosurv/domain/survival"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// DefaultGridPoints is the number of evaluation points per curve
const DefaultGridPoints = 200

// BuildGrid returns points evenly spaced over (0, maxTime], the first at
// maxTime/points. Every point is strictly positive.
func BuildGrid(maxTime float64, points int) ([]float64, error) {
	if points < 2 {
		return nil, core.NewValidationError("grid", fmt.Sprintf("need at least 2 points, got %d", points))
	}
	if !(maxTime > 0) || math.IsInf(maxTime, 0) {
		return nil, core.NewDomainError(maxTime)
	}
	grid := floats.Span(make([]float64, points), maxTime/float64(points), maxTime)
	if err := checkDomain(grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// checkDomain rejects any evaluation time outside t > 0
func checkDomain(grid []float64) error {
	for _, t := range grid {
		if !(t > 0) {
			return core.NewDomainError(t)
		}
	}
	return nil
}

// evaluate samples every function on the grid in method order
func evaluate(grid []float64, methods []survival.Method, fns map[survival.Method]survival.SurvivalFunction) (surv, hazard []comparison.Series, err error) {
	if err := checkDomain(grid); err != nil {
		return nil, nil, err
	}
	for _, m := range methods {
		f := fns[m]
		s := comparison.Series{Method: m, Values: make([]float64, len(grid))}
		h := comparison.Series{Method: m, Values: make([]float64, len(grid))}
		for i, t := range grid {
			s.Values[i] = f.Survival(t)
			h.Values[i] = f.CumulativeHazard(t)
		}
		surv = append(surv, s)
		hazard = append(hazard, h)
	}
	return surv, hazard, nil
}

// summarize describes the follow-up times of a sample
func summarize(sample *survival.Sample) (comparison.SampleSummary, error) {
	times := stats.Float64Data(sample.Times())
	summary := comparison.SampleSummary{
		N:                sample.Len(),
		Events:           sample.Events(),
		Censored:         sample.Censored(),
		CensoredFraction: sample.CensoredFraction(),
	}

	var err error
	if summary.MeanTime, err = stats.Mean(times); err != nil {
		return summary, err
	}
	if summary.MedianTime, err = stats.Median(times); err != nil {
		return summary, err
	}
	if summary.P90Time, err = stats.Percentile(times, 90); err != nil {
		return summary, err
	}
	if summary.MaxTime, err = stats.Max(times); err != nil {
		return summary, err
	}
	return summary, nil
}
