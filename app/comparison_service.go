package app

import (
	"context"
	"fmt"
	"time"

	"gosurv/domain/comparison"
	"gosurv/domain/core"
	"gosurv/domain/run"
	"gosurv/domain/survival"
	"gosurv/internal"
	"gosurv/ports"

	"golang.org/x/sync/errgroup"
)

// ComparisonService draws the sample, fits the three models and assembles
// the comparison against the true law
type ComparisonService struct {
	sampler   ports.SamplerPort
	rng       ports.RNGPort
	estimator ports.NonParametricEstimator
	aft       ports.AFTFitter
	cox       ports.CoxFitter
	sinks     []ports.ReportSink
	repo      ports.ReportRepository
	confLevel float64
	logger    *internal.Logger
}

// ComparisonDeps groups the collaborators of the service. Repo is optional.
// Without RNG, manifests carry no stream checks and cannot be verified.
type ComparisonDeps struct {
	Sampler   ports.SamplerPort
	RNG       ports.RNGPort
	Estimator ports.NonParametricEstimator
	AFT       ports.AFTFitter
	Cox       ports.CoxFitter
	Sinks     []ports.ReportSink
	Repo      ports.ReportRepository
	ConfLevel float64
	Logger    *internal.Logger
}

// ComparisonRequest defines the inputs of one run
type ComparisonRequest struct {
	Spec       survival.SampleSpec
	Sample     *survival.Sample // optional, replaces the simulated sample
	GridPoints int              // 0 means unset and selects DefaultGridPoints
	RunID      core.RunID       // optional, will be generated if empty
}

// NewComparisonService creates a comparison service
func NewComparisonService(deps ComparisonDeps) *ComparisonService {
	logger := deps.Logger
	if logger == nil {
		logger = internal.Nop()
	}
	return &ComparisonService{
		sampler:   deps.Sampler,
		rng:       deps.RNG,
		estimator: deps.Estimator,
		aft:       deps.AFT,
		cox:       deps.Cox,
		sinks:     deps.Sinks,
		repo:      deps.Repo,
		confLevel: deps.ConfLevel,
		logger:    logger,
	}
}

// fitResults holds the output of the three independent fits
type fitResults struct {
	km  *survival.StepCurve
	aft *survival.AFTFit
	cox *survival.CoxFit
}

// Run executes the full comparison and publishes the report
func (s *ComparisonService) Run(ctx context.Context, req ComparisonRequest) (*comparison.Report, error) {
	startTime := time.Now()

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}
	gridPoints := req.GridPoints
	if gridPoints == 0 {
		gridPoints = DefaultGridPoints
	}
	logger := s.logger.WithField("run_id", runID.String())

	sample, err := s.obtainSample(ctx, req, logger)
	if err != nil {
		return nil, err
	}
	spec := sample.Spec()

	stageStart := time.Now()
	fits, err := s.fitAll(ctx, sample)
	if err != nil {
		return nil, err
	}
	logger.Info("[Comparison] fitted Kaplan-Meier, Weibull AFT and Cox PH in %s", time.Since(stageStart))

	functions := map[survival.Method]survival.SurvivalFunction{
		survival.MethodKaplanMeier: fits.km,
		survival.MethodCox:         fits.cox.Baseline,
		survival.MethodWeibullAFT:  survival.AFTCurve(fits.aft, nil),
		survival.MethodTrueWeibull: survival.WeibullLaw{Shape: spec.FailureShape, Scale: spec.FailureScale},
	}

	grid, err := BuildGrid(sample.MaxTime(), gridPoints)
	if err != nil {
		return nil, err
	}
	survSeries, hazardSeries, err := evaluate(grid, survival.Methods, functions)
	if err != nil {
		return nil, err
	}

	var quartiles survival.QuartileTable
	for _, m := range survival.Methods {
		quartiles.Set(m, survival.QuartilesOf(functions[m]))
	}

	manifest, err := s.buildManifest(ctx, runID, req, sample, gridPoints)
	if err != nil {
		return nil, err
	}

	summary, err := summarize(sample)
	if err != nil {
		return nil, fmt.Errorf("summarize sample: %w", err)
	}

	report := &comparison.Report{
		RunID:            runID,
		Manifest:         manifest,
		Sample:           summary,
		KaplanMeier:      fits.km,
		AFT:              fits.aft,
		Cox:              fits.cox,
		Grid:             grid,
		Survival:         survSeries,
		CumulativeHazard: hazardSeries,
		Quartiles:        quartiles,
		GeneratedAt:      core.Now(),
	}
	logger.Debug("[Comparison] max |S_KM - S_Cox| at event times: %.3g", report.MaxKMCoxGap())

	if err := s.publish(ctx, report, logger); err != nil {
		return report, err
	}

	logger.Info("[Comparison] run completed in %s", time.Since(startTime))
	return report, nil
}

func (s *ComparisonService) obtainSample(ctx context.Context, req ComparisonRequest, logger *internal.Logger) (*survival.Sample, error) {
	if req.Sample != nil {
		logger.Info("[Comparison] using supplied sample of %d subjects", req.Sample.Len())
		return req.Sample, nil
	}
	stageStart := time.Now()
	sample, err := s.sampler.Draw(ctx, req.Spec)
	if err != nil {
		return nil, fmt.Errorf("draw sample: %w", err)
	}
	logger.Info("[Comparison] drew %d subjects (%.1f%% censored) in %s",
		sample.Len(), 100*sample.CensoredFraction(), time.Since(stageStart))
	return sample, nil
}

// buildManifest stamps the run parameters. Simulated runs record the leading
// draws of each named stream; supplied samples record their content hash.
func (s *ComparisonService) buildManifest(ctx context.Context, runID core.RunID, req ComparisonRequest, sample *survival.Sample, gridPoints int) (*run.RunManifest, error) {
	spec := sample.Spec()
	manifest := run.NewRunManifest(runID, spec, gridPoints, s.confLevel)
	if req.Sample != nil {
		manifest.MarkInput(run.HashSample(sample))
		return manifest, nil
	}
	if s.rng == nil {
		return manifest, nil
	}

	for _, name := range []string{survival.FailureStream, survival.CensoringStream} {
		src, err := s.rng.SeededStream(ctx, name, spec.Seed)
		if err != nil {
			return nil, fmt.Errorf("record stream %s: %w", name, err)
		}
		draws := make([]float64, run.StreamCheckDraws)
		for i := range draws {
			draws[i] = src.Float64()
		}
		manifest.StreamChecks = append(manifest.StreamChecks, run.StreamCheck{Name: name, Draws: draws})
	}
	return manifest, nil
}

// Verify checks that a stored manifest is intact and that the random streams
// still reproduce the draws it recorded, so replaying its spec regenerates the
// same sample
func (s *ComparisonService) Verify(ctx context.Context, manifest *run.RunManifest) error {
	if manifest == nil {
		return core.NewValidationError("run_manifest", "manifest is required")
	}
	if err := manifest.Validate(); err != nil {
		return err
	}
	if err := manifest.CheckFingerprint(); err != nil {
		return err
	}
	if manifest.Source == run.SourceInput {
		return core.NewValidationError("run_manifest",
			fmt.Sprintf("run %s used a supplied sample (input hash %s) and cannot be replayed", manifest.RunID, manifest.Fingerprint.InputHash.Short()))
	}
	if !manifest.Replayable() {
		return core.NewValidationError("run_manifest", "manifest records no stream checks")
	}
	if s.rng == nil {
		return fmt.Errorf("verify run %s: no random source configured", manifest.RunID)
	}

	for _, check := range manifest.StreamChecks {
		if err := s.rng.ValidateSeed(ctx, check.Name, manifest.Spec.Seed, check.Draws); err != nil {
			return err
		}
	}
	s.logger.WithField("run_id", manifest.RunID.String()).Info("[Comparison] verified %d streams against manifest", len(manifest.StreamChecks))
	return nil
}

// fitAll runs the three fits concurrently on the shared immutable sample
func (s *ComparisonService) fitAll(ctx context.Context, sample *survival.Sample) (*fitResults, error) {
	var res fitResults
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		km, err := s.estimator.Estimate(gctx, sample)
		if err != nil {
			return fmt.Errorf("kaplan-meier: %w", err)
		}
		res.km = km
		return nil
	})
	g.Go(func() error {
		fit, err := s.aft.FitAFT(gctx, sample, nil)
		if err != nil {
			return fmt.Errorf("weibull aft: %w", err)
		}
		res.aft = fit
		return nil
	})
	g.Go(func() error {
		fit, err := s.cox.FitCox(gctx, sample, nil)
		if err != nil {
			return fmt.Errorf("cox ph: %w", err)
		}
		res.cox = fit
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &res, nil
}

// publish hands the report to every sink, then archives it when a repository is configured
func (s *ComparisonService) publish(ctx context.Context, report *comparison.Report, logger *internal.Logger) error {
	for _, sink := range s.sinks {
		stageStart := time.Now()
		artifacts, err := sink.Publish(ctx, report)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", sink.Name(), err)
		}
		report.AddArtifacts(artifacts...)
		logger.Debug("[Comparison] sink %s published %d artifacts in %s", sink.Name(), len(artifacts), time.Since(stageStart))
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, report); err != nil {
			return fmt.Errorf("archive run: %w", err)
		}
		logger.Info("[Comparison] run archived")
	}
	return nil
}
