package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID      ID
	ArtifactID ID
)

func (id RunID) String() string      { return ID(id).String() }
func (id ArtifactID) String() string { return ID(id).String() }

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid run ID %q: %w", s, err)
	}
	return RunID(id.String()), nil
}

// ArtifactKind defines types of report artifacts
type ArtifactKind string

const (
	ArtifactSurvivalPlot   ArtifactKind = "survival_plot"
	ArtifactHazardPlot     ArtifactKind = "cumulative_hazard_plot"
	ArtifactMarkdownReport ArtifactKind = "markdown_report"
	ArtifactHTMLReport     ArtifactKind = "html_report"
	ArtifactWorkbook       ArtifactKind = "workbook"
	ArtifactRunManifest    ArtifactKind = "run_manifest"
)

// Artifact describes one file or record produced for a run
type Artifact struct {
	ID        ArtifactID   `json:"id"`
	RunID     RunID        `json:"run_id"`
	Kind      ArtifactKind `json:"kind"`
	Location  string       `json:"location"`
	CreatedAt Timestamp    `json:"created_at"`
}

// NewArtifact creates an artifact record stamped with the current time
func NewArtifact(runID RunID, kind ArtifactKind, location string) Artifact {
	return Artifact{
		ID:        ArtifactID(NewID()),
		RunID:     runID,
		Kind:      kind,
		Location:  location,
		CreatedAt: Now(),
	}
}
