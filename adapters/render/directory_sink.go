package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gosurv/adapters/excel"
	"gosurv/domain/comparison"
	"gosurv/domain/core"
	"gosurv/internal"
	apperrors "gosurv/internal/errors"

	"gonum.org/v1/plot"
)

// DirectorySink writes every report artifact under <root>/<run id>/
type DirectorySink struct {
	root     string
	plots    *PlotRenderer
	markdown *MarkdownReport
	html     *HTMLReport
	workbook *excel.WorkbookWriter
	logger   *internal.Logger
}

// NewDirectorySink creates a sink rooted at dir
func NewDirectorySink(root string, plots *PlotRenderer, logger *internal.Logger) *DirectorySink {
	if logger == nil {
		logger = internal.Nop()
	}
	md := NewMarkdownReport(plots.Format)
	return &DirectorySink{
		root:     root,
		plots:    plots,
		markdown: md,
		html:     NewHTMLReport(md),
		workbook: excel.NewWorkbookWriter(),
		logger:   logger,
	}
}

// Name identifies the sink in logs
func (d *DirectorySink) Name() string { return "directory" }

// RunDir returns the directory a run's artifacts are written to
func (d *DirectorySink) RunDir(runID core.RunID) string {
	return filepath.Join(d.root, runID.String())
}

// Publish renders the plots, documents, workbook and manifest
func (d *DirectorySink) Publish(ctx context.Context, report *comparison.Report) ([]core.Artifact, error) {
	dir := d.RunDir(report.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.RenderError("run directory", err)
	}

	outputs := []struct {
		kind   core.ArtifactKind
		name   string
		render func() ([]byte, error)
	}{
		{core.ArtifactSurvivalPlot, SurvivalPlotName + "." + d.plots.Format, func() ([]byte, error) {
			return d.renderPlot(d.plots.SurvivalPlot, report)
		}},
		{core.ArtifactHazardPlot, HazardPlotName + "." + d.plots.Format, func() ([]byte, error) {
			return d.renderPlot(d.plots.HazardPlot, report)
		}},
		{core.ArtifactMarkdownReport, MarkdownName, func() ([]byte, error) {
			return d.markdown.Render(report), nil
		}},
		{core.ArtifactHTMLReport, HTMLName, func() ([]byte, error) {
			return d.html.Render(report), nil
		}},
		{core.ArtifactWorkbook, WorkbookName, func() ([]byte, error) {
			var buf bytes.Buffer
			err := d.workbook.Write(&buf, report)
			return buf.Bytes(), err
		}},
		{core.ArtifactRunManifest, ManifestName, func() ([]byte, error) {
			return json.MarshalIndent(report.Manifest, "", "  ")
		}},
	}

	artifacts := make([]core.Artifact, 0, len(outputs))
	for _, o := range outputs {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		data, err := o.render()
		if err != nil {
			return artifacts, apperrors.RenderError(o.name, err)
		}
		path := filepath.Join(dir, o.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return artifacts, apperrors.RenderError(o.name, err)
		}
		d.logger.Debug("[DirectorySink] wrote %s (%d bytes)", path, len(data))
		artifacts = append(artifacts, core.NewArtifact(report.RunID, o.kind, path))
	}
	d.logger.Info("[DirectorySink] %d artifacts written to %s", len(artifacts), dir)
	return artifacts, nil
}

func (d *DirectorySink) renderPlot(build func(*comparison.Report) (*plot.Plot, error), report *comparison.Report) ([]byte, error) {
	p, err := build(report)
	if err != nil {
		return nil, fmt.Errorf("build plot: %w", err)
	}
	var buf bytes.Buffer
	if err := d.plots.Write(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
