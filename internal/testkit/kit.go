package testkit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"gosurv/adapters/stats/estimators"
	"gosurv/adapters/stats/sampler"
	"gosurv/domain/comparison"
	"gosurv/domain/core"
	"gosurv/domain/survival"
	"gosurv/internal"
	"gosurv/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	repo *InMemoryReportRepository // Shared archive instance
	sink *RecordingSink
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{
		repo: NewInMemoryReportRepository(),
		sink: NewRecordingSink(),
	}
}

// RNGAdapter returns an RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return &RNGAdapter{}
}

// Sampler returns a Weibull sampler driven by the test RNG
func (t *TestKit) Sampler() ports.SamplerPort {
	return sampler.NewWeibullSampler(t.RNGAdapter(), internal.Nop())
}

// Estimator returns a Kaplan-Meier estimator
func (t *TestKit) Estimator() ports.NonParametricEstimator {
	return estimators.NewKaplanMeierEstimator(estimators.DefaultConfLevel)
}

// AFTFitter returns a Weibull AFT fitter
func (t *TestKit) AFTFitter() ports.AFTFitter {
	return estimators.NewWeibullAFTFitter()
}

// CoxFitter returns a Cox PH fitter
func (t *TestKit) CoxFitter() ports.CoxFitter {
	return estimators.NewCoxPHFitter(estimators.DefaultConfLevel)
}

// ReportRepository returns the shared in-memory archive
func (t *TestKit) ReportRepository() *InMemoryReportRepository {
	return t.repo
}

// Sink returns the shared recording sink
func (t *TestKit) Sink() *RecordingSink {
	return t.sink
}

// DrawSample draws a sample of the given size with the default laws
func (t *TestKit) DrawSample(ctx context.Context, size int, seed uint64) (*survival.Sample, error) {
	spec := survival.DefaultSampleSpec()
	spec.Size = size
	spec.Seed = seed
	return t.Sampler().Draw(ctx, spec)
}

// RNGAdapter implements the RNGPort interface for testing
type RNGAdapter struct{}

// SeededStream creates a deterministic random number generator for a named operation
func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error) {
	return rand.New(rand.NewPCG(seed, uint64(hashString(name)))), nil
}

// ValidateSeed ensures the seed produces expected deterministic results
func (r *RNGAdapter) ValidateSeed(ctx context.Context, name string, seed uint64, expected []float64) error {
	rng, _ := r.SeededStream(ctx, name, seed)
	for i, want := range expected {
		if got := rng.Float64(); got != want {
			return fmt.Errorf("%w: draw %d", core.ErrSeedMismatch, i)
		}
	}
	return nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}

// InMemoryReportRepository implements ReportRepository with in-memory storage
type InMemoryReportRepository struct {
	records map[core.RunID]*comparison.RunRecord
	mu      sync.RWMutex
}

func NewInMemoryReportRepository() *InMemoryReportRepository {
	return &InMemoryReportRepository{records: make(map[core.RunID]*comparison.RunRecord)}
}

func (s *InMemoryReportRepository) SaveRun(ctx context.Context, report *comparison.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[report.RunID] = comparison.NewRunRecord(report)
	return nil
}

func (s *InMemoryReportRepository) GetRun(ctx context.Context, runID core.RunID) (*comparison.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[runID]
	if !ok {
		return nil, core.NewNotFoundError("run", runID.String())
	}
	return rec, nil
}

func (s *InMemoryReportRepository) ListRuns(ctx context.Context, limit int) ([]*comparison.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*comparison.RunRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordingSink keeps every published report
type RecordingSink struct {
	mu      sync.Mutex
	reports []*comparison.Report
	Err     error // returned from Publish when set
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) Name() string { return "recording" }

func (s *RecordingSink) Publish(ctx context.Context, report *comparison.Report) ([]core.Artifact, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return []core.Artifact{core.NewArtifact(report.RunID, core.ArtifactRunManifest, "memory://"+report.RunID.String())}, nil
}

// Reports returns the reports published so far
func (s *RecordingSink) Reports() []*comparison.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*comparison.Report(nil), s.reports...)
}
