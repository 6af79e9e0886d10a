package run

import (
	"errors"
	"testing"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	spec := survival.DefaultSampleSpec()

	fp1 := NewRunFingerprint(spec, 200, "1.0.0", "")
	fp2 := NewRunFingerprint(spec, 200, "1.0.0", "")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != spec.Seed {
		t.Errorf("Seed mismatch: %d vs %d", fp1.Seed, spec.Seed)
	}
	if fp1.GridPoints != 200 {
		t.Errorf("GridPoints mismatch: %d", fp1.GridPoints)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint(survival.DefaultSampleSpec(), 200, "1.0.0", "")

	otherSeed := survival.DefaultSampleSpec()
	otherSeed.Seed = 476
	otherShape := survival.DefaultSampleSpec()
	otherShape.FailureShape = 1.5

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different seed", NewRunFingerprint(otherSeed, 200, "1.0.0", "")},
		{"different shape", NewRunFingerprint(otherShape, 200, "1.0.0", "")},
		{"different grid", NewRunFingerprint(survival.DefaultSampleSpec(), 100, "1.0.0", "")},
		{"different code version", NewRunFingerprint(survival.DefaultSampleSpec(), 200, "2.0.0", "")},
		{"supplied sample", NewRunFingerprint(survival.DefaultSampleSpec(), 200, "1.0.0", core.NewHash([]byte("sample.csv")))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should differ for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_Validate(t *testing.T) {
	m := NewRunManifest(core.NewRunID(), survival.DefaultSampleSpec(), 200, 0.95)
	if err := m.Validate(); err != nil {
		t.Fatalf("Expected valid manifest, got %v", err)
	}

	replay := NewRunManifest(core.NewRunID(), survival.DefaultSampleSpec(), 200, 0.95)
	if !m.Matches(replay) {
		t.Error("Manifests with identical parameters should match")
	}

	invalid := *m
	invalid.RunID = ""
	if err := invalid.Validate(); err == nil {
		t.Error("Expected error for empty run ID")
	}

	invalid = *m
	invalid.GridPoints = 1
	if err := invalid.Validate(); err == nil {
		t.Error("Expected error for a one-point grid")
	}

	invalid = *m
	invalid.Source = "remote"
	if err := invalid.Validate(); err == nil {
		t.Error("Expected error for an unknown source")
	}

	invalid = *m
	invalid.ConfLevel = 1
	if err := invalid.Validate(); err == nil {
		t.Error("Expected error for conf level 1")
	}
}

func TestRunManifest_MarkInput(t *testing.T) {
	spec := survival.DefaultSampleSpec()
	spec.Size = 3
	sample, err := survival.NewSample(spec, []survival.Subject{
		{Time: 0.4, Status: true},
		{Time: 1.1, Status: false},
		{Time: 0.7, Status: true},
	})
	if err != nil {
		t.Fatalf("NewSample: %v", err)
	}

	simulated := NewRunManifest(core.NewRunID(), spec, 200, 0.95)
	simulated.StreamChecks = []StreamCheck{{Name: survival.FailureStream, Draws: []float64{0.25}}}
	if !simulated.Replayable() {
		t.Error("Simulated manifest with stream checks should be replayable")
	}

	supplied := NewRunManifest(core.NewRunID(), spec, 200, 0.95)
	supplied.StreamChecks = simulated.StreamChecks
	supplied.MarkInput(HashSample(sample))

	if supplied.Source != SourceInput {
		t.Errorf("Source = %q, want %q", supplied.Source, SourceInput)
	}
	if supplied.Fingerprint.InputHash.IsEmpty() {
		t.Error("Input hash should be recorded")
	}
	if supplied.Replayable() {
		t.Error("A run on a supplied sample cannot be replayed from its manifest")
	}
	if supplied.Matches(simulated) {
		t.Error("Supplied and simulated runs must not share a fingerprint")
	}
	if err := supplied.Validate(); err != nil {
		t.Errorf("Expected valid input manifest, got %v", err)
	}
	if err := supplied.CheckFingerprint(); err != nil {
		t.Errorf("Fingerprint should verify, got %v", err)
	}

	missingHash := *supplied
	missingHash.Fingerprint.InputHash = ""
	if err := missingHash.Validate(); err == nil {
		t.Error("Expected error for an input run without a hash")
	}
}

func TestHashSample_OrderAndStatusSensitive(t *testing.T) {
	spec := survival.DefaultSampleSpec()
	spec.Size = 2
	build := func(subjects ...survival.Subject) core.Hash {
		s, err := survival.NewSample(spec, subjects)
		if err != nil {
			t.Fatalf("NewSample: %v", err)
		}
		return HashSample(s)
	}

	base := build(survival.Subject{Time: 0.5, Status: true}, survival.Subject{Time: 1.5, Status: false})
	if base != build(survival.Subject{Time: 0.5, Status: true}, survival.Subject{Time: 1.5, Status: false}) {
		t.Error("Identical samples should hash identically")
	}
	if base == build(survival.Subject{Time: 1.5, Status: false}, survival.Subject{Time: 0.5, Status: true}) {
		t.Error("Reordered sample should hash differently")
	}
	if base == build(survival.Subject{Time: 0.5, Status: false}, survival.Subject{Time: 1.5, Status: false}) {
		t.Error("Changed status should hash differently")
	}
}

func TestRunManifest_CheckFingerprint(t *testing.T) {
	m := NewRunManifest(core.NewRunID(), survival.DefaultSampleSpec(), 200, 0.95)
	if err := m.CheckFingerprint(); err != nil {
		t.Fatalf("Fresh manifest should verify, got %v", err)
	}

	tampered := *m
	tampered.Spec.Seed = 476
	err := tampered.CheckFingerprint()
	if !errors.Is(err, core.ErrHashMismatch) {
		t.Errorf("Expected ErrHashMismatch, got %v", err)
	}

	tampered = *m
	tampered.GridPoints = 100
	if err := tampered.CheckFingerprint(); !errors.Is(err, core.ErrHashMismatch) {
		t.Errorf("Expected ErrHashMismatch for altered grid, got %v", err)
	}
}
