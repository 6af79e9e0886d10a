package estimators

import (
	"math"

	"gosurv/domain/survival"
)

// designMatrix returns one row per subject. With intercept set the first
// column is the constant 1.
func designMatrix(n int, covariates *survival.Covariates, intercept bool) ([][]float64, []string) {
	width := covariates.Width()
	var names []string
	if intercept {
		names = append(names, survival.InterceptName)
	}
	if covariates != nil {
		names = append(names, covariates.Names...)
	}

	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, 0, len(names))
		if intercept {
			row = append(row, 1)
		}
		if width > 0 {
			row = append(row, covariates.Rows[i]...)
		}
		rows[i] = row
	}
	return rows, names
}

// columnMeans returns the mean of each column
func columnMeans(rows [][]float64, width int) []float64 {
	means := make([]float64, width)
	if len(rows) == 0 {
		return means
	}
	for _, row := range rows {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(len(rows))
	}
	return means
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// logConfidenceBand applies the log transform used for survival intervals
func logConfidenceBand(s, seLogS, z float64) (lower, upper float64) {
	if s <= 0 {
		return 0, 0
	}
	if math.IsNaN(seLogS) || math.IsInf(seLogS, 0) {
		return 0, 1
	}
	lower = s * math.Exp(-z*seLogS)
	upper = math.Min(1, s*math.Exp(z*seLogS))
	return math.Max(0, lower), upper
}
