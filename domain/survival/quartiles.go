package survival

import "math"

// QuartileProbabilities are the failure probabilities reported per method
var QuartileProbabilities = [3]float64{0.25, 0.5, 0.75}

// Quartiles holds the 25%, 50% and 75% failure-time quantiles
type Quartiles struct {
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// QuartilesOf extracts the quartiles of any survival function
func QuartilesOf(f SurvivalFunction) Quartiles {
	return Quartiles{
		Q1:     f.Quantile(QuartileProbabilities[0]),
		Median: f.Quantile(QuartileProbabilities[1]),
		Q3:     f.Quantile(QuartileProbabilities[2]),
	}
}

// Values returns the quartiles in probability order
func (q Quartiles) Values() [3]float64 {
	return [3]float64{q.Q1, q.Median, q.Q3}
}

// Defined reports whether all three quantiles were reached
func (q Quartiles) Defined() bool {
	return !math.IsNaN(q.Q1) && !math.IsNaN(q.Median) && !math.IsNaN(q.Q3)
}

// QuartileRow is one line of the comparison table
type QuartileRow struct {
	Method    Method    `json:"method"`
	Quartiles Quartiles `json:"quartiles"`
}

// QuartileTable maps each method to its quartiles, keeping insertion order
type QuartileTable struct {
	Rows []QuartileRow `json:"rows"`
}

// Set inserts or replaces the row for a method
func (t *QuartileTable) Set(m Method, q Quartiles) {
	for i := range t.Rows {
		if t.Rows[i].Method == m {
			t.Rows[i].Quartiles = q
			return
		}
	}
	t.Rows = append(t.Rows, QuartileRow{Method: m, Quartiles: q})
}

// Get returns the quartiles recorded for a method
func (t *QuartileTable) Get(m Method) (Quartiles, bool) {
	for _, row := range t.Rows {
		if row.Method == m {
			return row.Quartiles, true
		}
	}
	return Quartiles{}, false
}
