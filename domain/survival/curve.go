package survival

import (
	"math"
	"sort"
)

// quantileTolerance decides when a step curve sits exactly on 1-p
const quantileTolerance = 1e-9

// StepPoint is the state of a step curve at one distinct observed time
type StepPoint struct {
	Time      float64 `json:"time"`
	AtRisk    int     `json:"at_risk"`
	Events    int     `json:"events"`
	Censored  int     `json:"censored"`
	Survival  float64 `json:"survival"`
	CumHazard float64 `json:"cum_hazard"`
	StdErr    float64 `json:"std_err"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// StepCurve is a right-continuous step function over distinct observed times.
// Points are sorted by strictly increasing Time.
type StepCurve struct {
	Method    Method      `json:"method"`
	ConfLevel float64     `json:"conf_level"`
	Points    []StepPoint `json:"points"`
}

// indexAt returns the last point with Time <= t, or -1
func (c *StepCurve) indexAt(t float64) int {
	idx := sort.Search(len(c.Points), func(i int) bool {
		return c.Points[i].Time > t
	})
	return idx - 1
}

// Survival evaluates S(t); 1 before the first observed time
func (c *StepCurve) Survival(t float64) float64 {
	if !(t > 0) {
		return math.NaN()
	}
	k := c.indexAt(t)
	if k < 0 {
		return 1
	}
	return c.Points[k].Survival
}

// CumulativeHazard evaluates H(t); 0 before the first observed time
func (c *StepCurve) CumulativeHazard(t float64) float64 {
	if !(t > 0) {
		return math.NaN()
	}
	k := c.indexAt(t)
	if k < 0 {
		return 0
	}
	return c.Points[k].CumHazard
}

// Quantile returns the smallest time at which S drops to 1-p or below.
// When S sits exactly on 1-p the midpoint between that time and the next
// drop is returned. NaN when the curve never reaches 1-p.
func (c *StepCurve) Quantile(p float64) float64 {
	if !(p > 0 && p < 1) {
		return math.NaN()
	}
	target := 1 - p

	for k, pt := range c.Points {
		if pt.Survival > target+quantileTolerance {
			continue
		}
		if math.Abs(pt.Survival-target) <= quantileTolerance {
			for j := k + 1; j < len(c.Points); j++ {
				if c.Points[j].Survival < pt.Survival-quantileTolerance {
					return (pt.Time + c.Points[j].Time) / 2
				}
			}
		}
		return pt.Time
	}
	return math.NaN()
}

// EventTimes returns the times at which at least one failure was observed
func (c *StepCurve) EventTimes() []float64 {
	var out []float64
	for _, pt := range c.Points {
		if pt.Events > 0 {
			out = append(out, pt.Time)
		}
	}
	return out
}

// TotalEvents sums failures over all points
func (c *StepCurve) TotalEvents() int {
	n := 0
	for _, pt := range c.Points {
		n += pt.Events
	}
	return n
}
