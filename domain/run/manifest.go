package run

import (
	"fmt"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// CodeVersion is stamped into every manifest
const CodeVersion = "v0.3.0"

// RunManifest is the complete specification for one comparison run.
// A simulated run is reproduced by replaying its spec and seed. A run on a
// supplied sample records the hash of that sample instead and can only be
// reproduced from the same file.
type RunManifest struct {
	RunID        core.RunID          `json:"run_id"`
	Source       string              `json:"source"`
	Spec         survival.SampleSpec `json:"spec"`
	GridPoints   int                 `json:"grid_points"`
	ConfLevel    float64             `json:"conf_level"`
	CodeVersion  string              `json:"code_version"`
	Fingerprint  RunFingerprint      `json:"fingerprint"`
	StreamChecks []StreamCheck       `json:"stream_checks,omitempty"`
	CreatedAt    core.Timestamp      `json:"created_at"`
}

// NewRunManifest creates a manifest for a simulated run
func NewRunManifest(runID core.RunID, spec survival.SampleSpec, gridPoints int, confLevel float64) *RunManifest {
	return &RunManifest{
		RunID:       runID,
		Source:      SourceSimulated,
		Spec:        spec,
		GridPoints:  gridPoints,
		ConfLevel:   confLevel,
		CodeVersion: CodeVersion,
		Fingerprint: NewRunFingerprint(spec, gridPoints, CodeVersion, ""),
		CreatedAt:   core.Now(),
	}
}

// MarkInput records that the sample came from a file with the given content
// hash and folds the hash into the fingerprint
func (m *RunManifest) MarkInput(inputHash core.Hash) {
	m.Source = SourceInput
	m.StreamChecks = nil
	m.Fingerprint = NewRunFingerprint(m.Spec, m.GridPoints, m.CodeVersion, inputHash)
}

// Replayable reports whether the sample can be regenerated from the manifest alone
func (m *RunManifest) Replayable() bool {
	return m.Source == SourceSimulated && len(m.StreamChecks) > 0
}

// Validate checks if the manifest is complete
func (m *RunManifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	switch m.Source {
	case SourceSimulated:
		if !m.Fingerprint.InputHash.IsEmpty() {
			return core.NewValidationError("run_manifest", "simulated run cannot carry an input hash")
		}
	case SourceInput:
		if m.Fingerprint.InputHash.IsEmpty() {
			return core.NewValidationError("run_manifest", "input run requires an input hash")
		}
	default:
		return core.NewValidationError("run_manifest", fmt.Sprintf("unknown source %q", m.Source))
	}
	if err := m.Spec.Validate(); err != nil {
		return err
	}
	if m.GridPoints < 2 {
		return core.NewValidationError("run_manifest", "grid_points must be at least 2")
	}
	if !(m.ConfLevel > 0 && m.ConfLevel < 1) {
		return core.NewValidationError("run_manifest", "conf_level must be in (0, 1)")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "fingerprint cannot be empty")
	}
	return nil
}

// CheckFingerprint recomputes the fingerprint from the manifest fields and
// fails with core.ErrHashMismatch when any of them was altered
func (m *RunManifest) CheckFingerprint() error {
	want := NewRunFingerprint(m.Spec, m.GridPoints, m.CodeVersion, m.Fingerprint.InputHash)
	if !want.Fingerprint.Equals(m.Fingerprint.Fingerprint) {
		return fmt.Errorf("%w: manifest %s has fingerprint %s, fields hash to %s",
			core.ErrHashMismatch, m.RunID, m.Fingerprint.Fingerprint.Short(), want.Fingerprint.Short())
	}
	return nil
}

// Matches reports whether another manifest describes the same deterministic run
func (m *RunManifest) Matches(other *RunManifest) bool {
	return other != nil && m.Fingerprint.Fingerprint.Equals(other.Fingerprint.Fingerprint)
}
