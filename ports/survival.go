package ports

import (
	"context"

	"gosurv/domain/survival"
)

// SamplerPort draws a censored sample under a fixed specification
type SamplerPort interface {
	Draw(ctx context.Context, spec survival.SampleSpec) (*survival.Sample, error)
}

// NonParametricEstimator produces a step survival curve from a sample
type NonParametricEstimator interface {
	Estimate(ctx context.Context, sample *survival.Sample) (*survival.StepCurve, error)
}

// AFTFitter fits a parametric accelerated failure time model.
// A nil covariate block fits the intercept-only model.
type AFTFitter interface {
	FitAFT(ctx context.Context, sample *survival.Sample, covariates *survival.Covariates) (*survival.AFTFit, error)
}

// CoxFitter fits a proportional hazards model by partial likelihood
type CoxFitter interface {
	FitCox(ctx context.Context, sample *survival.Sample, covariates *survival.Covariates) (*survival.CoxFit, error)
}
