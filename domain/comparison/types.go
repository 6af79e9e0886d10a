package comparison

import (
	"math"

	"gosurv/domain/core"
	"gosurv/domain/run"
	"gosurv/domain/survival"
)

// SampleSummary describes the simulated sample the fits were run on
type SampleSummary struct {
	N                int     `json:"n"`
	Events           int     `json:"events"`
	Censored         int     `json:"censored"`
	CensoredFraction float64 `json:"censored_fraction"`
	MeanTime         float64 `json:"mean_time"`
	MedianTime       float64 `json:"median_time"`
	P90Time          float64 `json:"p90_time"`
	MaxTime          float64 `json:"max_time"`
}

// Series is one method's curve evaluated on the report grid
type Series struct {
	Method survival.Method `json:"method"`
	Values []float64       `json:"values"` // aligned with Report.Grid
}

// Report is the complete output of one comparison run
type Report struct {
	RunID            core.RunID             `json:"run_id"`
	Manifest         *run.RunManifest       `json:"manifest"`
	Sample           SampleSummary          `json:"sample"`
	KaplanMeier      *survival.StepCurve    `json:"kaplan_meier"`
	AFT              *survival.AFTFit       `json:"aft"`
	Cox              *survival.CoxFit       `json:"cox"`
	Grid             []float64              `json:"grid"`
	Survival         []Series               `json:"survival"`
	CumulativeHazard []Series               `json:"cumulative_hazard"`
	Quartiles        survival.QuartileTable `json:"quartiles"`
	GeneratedAt      core.Timestamp         `json:"generated_at"`
	Artifacts        []core.Artifact        `json:"artifacts,omitempty"`
}

// SurvivalSeries returns the survival series of a method
func (r *Report) SurvivalSeries(m survival.Method) (Series, bool) {
	return findSeries(r.Survival, m)
}

// HazardSeries returns the cumulative-hazard series of a method
func (r *Report) HazardSeries(m survival.Method) (Series, bool) {
	return findSeries(r.CumulativeHazard, m)
}

func findSeries(all []Series, m survival.Method) (Series, bool) {
	for _, s := range all {
		if s.Method == m {
			return s, true
		}
	}
	return Series{}, false
}

// MaxKMCoxGap returns the largest absolute difference between the Kaplan-Meier
// and Cox baseline survival at the Kaplan-Meier event times. Without covariates
// the two estimates coincide and the gap is zero up to rounding.
func (r *Report) MaxKMCoxGap() float64 {
	if r.KaplanMeier == nil || r.Cox == nil || r.Cox.Baseline == nil {
		return math.NaN()
	}
	gap := 0.0
	for _, t := range r.KaplanMeier.EventTimes() {
		d := math.Abs(r.KaplanMeier.Survival(t) - r.Cox.Baseline.Survival(t))
		if d > gap {
			gap = d
		}
	}
	return gap
}

// AddArtifacts records artifacts published for this report
func (r *Report) AddArtifacts(artifacts ...core.Artifact) {
	r.Artifacts = append(r.Artifacts, artifacts...)
}

// RunRecord is the archived, flattened view of a report
type RunRecord struct {
	RunID            core.RunID             `json:"run_id"`
	Fingerprint      core.Hash              `json:"fingerprint"`
	SampleSize       int                    `json:"sample_size"`
	FailureShape     float64                `json:"failure_shape"`
	FailureScale     float64                `json:"failure_scale"`
	CensoringRate    float64                `json:"censoring_rate"`
	Seed             int64                  `json:"seed"`
	Events           int                    `json:"events"`
	CensoredFraction float64                `json:"censored_fraction"`
	AFTIntercept     float64                `json:"aft_intercept"`
	AFTScale         float64                `json:"aft_scale"`
	AFTLogLik        float64                `json:"aft_loglik"`
	CoxLogLik        float64                `json:"cox_loglik"`
	KMCoxMaxGap      float64                `json:"km_cox_max_gap"`
	CodeVersion      string                 `json:"code_version"`
	CreatedAt        core.Timestamp         `json:"created_at"`
	Quartiles        survival.QuartileTable `json:"quartiles"`
}

// NewRunRecord flattens a report for archiving
func NewRunRecord(r *Report) *RunRecord {
	rec := &RunRecord{
		RunID:            r.RunID,
		Events:           r.Sample.Events,
		CensoredFraction: r.Sample.CensoredFraction,
		SampleSize:       r.Sample.N,
		KMCoxMaxGap:      r.MaxKMCoxGap(),
		CreatedAt:        r.GeneratedAt,
		Quartiles:        r.Quartiles,
		AFTIntercept:     math.NaN(),
		AFTScale:         math.NaN(),
		AFTLogLik:        math.NaN(),
		CoxLogLik:        math.NaN(),
	}
	if r.Manifest != nil {
		rec.Fingerprint = r.Manifest.Fingerprint.Fingerprint
		rec.FailureShape = r.Manifest.Spec.FailureShape
		rec.FailureScale = r.Manifest.Spec.FailureScale
		rec.CensoringRate = r.Manifest.Spec.CensoringRate
		rec.Seed = int64(r.Manifest.Spec.Seed)
		rec.CodeVersion = r.Manifest.CodeVersion
	}
	if r.AFT != nil {
		rec.AFTIntercept = r.AFT.Intercept()
		rec.AFTScale = r.AFT.Scale
		rec.AFTLogLik = r.AFT.LogLikelihood
	}
	if r.Cox != nil {
		rec.CoxLogLik = r.Cox.LogLikelihood
	}
	return rec
}
