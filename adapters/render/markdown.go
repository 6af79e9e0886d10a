package render

import (
	"bytes"
	"fmt"
	"math"

	"gosurv/domain/comparison"
	"gosurv/domain/run"
	"gosurv/domain/survival"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Report file names inside a run directory
const (
	SurvivalPlotName = "survival"
	HazardPlotName   = "cumulative_hazard"
	MarkdownName     = "report.md"
	HTMLName         = "report.html"
	WorkbookName     = "report.xlsx"
	ManifestName     = "manifest.json"
)

const reportTitle = "Weibull AFT vs Cox PH: survival comparison"

// MarkdownReport renders a report as a markdown document
type MarkdownReport struct {
	PlotFormat string // extension of the linked plot images
}

// NewMarkdownReport creates a markdown renderer linking plots of the given format
func NewMarkdownReport(plotFormat string) *MarkdownReport {
	return &MarkdownReport{PlotFormat: plotFormat}
}

// Render produces the markdown document
func (m *MarkdownReport) Render(report *comparison.Report) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", reportTitle)
	fmt.Fprintf(&b, "Run `%s`", report.RunID)
	if report.Manifest != nil {
		fmt.Fprintf(&b, ", fingerprint `%s`, code %s", report.Manifest.Fingerprint.Fingerprint.Short(), report.Manifest.CodeVersion)
		if report.Manifest.Source == run.SourceInput {
			fmt.Fprintf(&b, ", sample read from input `%s`", report.Manifest.Fingerprint.InputHash.Short())
		}
	}
	fmt.Fprintf(&b, ", generated %s.\n\n", report.GeneratedAt)

	writeSampleSection(&b, report)
	writeAFTSection(&b, report.AFT)
	writeCoxSection(&b, report)

	b.WriteString("## Quartiles\n\n")
	b.WriteString("| Method | 25% | 50% | 75% |\n|---|---:|---:|---:|\n")
	for _, row := range report.Quartiles.Rows {
		q := row.Quartiles.Values()
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.Method.Label(), num(q[0]), num(q[1]), num(q[2]))
	}
	b.WriteString("\n")

	if m.PlotFormat != "" {
		b.WriteString("## Curves\n\n")
		fmt.Fprintf(&b, "![Survival function](%s.%s)\n\n", SurvivalPlotName, m.PlotFormat)
		fmt.Fprintf(&b, "![Cumulative hazard](%s.%s)\n", HazardPlotName, m.PlotFormat)
	}
	return b.Bytes()
}

func writeSampleSection(b *bytes.Buffer, report *comparison.Report) {
	s := report.Sample
	b.WriteString("## Sample\n\n")
	if report.Manifest != nil {
		spec := report.Manifest.Spec
		fmt.Fprintf(b, "Failure times Weibull(shape %g, scale %g), censoring Exponential(rate %g), seed %d.\n\n",
			spec.FailureShape, spec.FailureScale, spec.CensoringRate, spec.Seed)
	}
	b.WriteString("| n | events | censored | censored fraction | mean time | median time | p90 time | max time |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(b, "| %d | %d | %d | %.3f | %s | %s | %s | %s |\n\n",
		s.N, s.Events, s.Censored, s.CensoredFraction, num(s.MeanTime), num(s.MedianTime), num(s.P90Time), num(s.MaxTime))
}

func writeAFTSection(b *bytes.Buffer, fit *survival.AFTFit) {
	if fit == nil {
		return
	}
	b.WriteString("## Weibull AFT\n\n")
	b.WriteString("| Term | Estimate | Std. error |\n|---|---:|---:|\n")
	for i, name := range fit.CoefficientNames {
		se := math.NaN()
		if i < len(fit.StdErr) {
			se = fit.StdErr[i]
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", name, num(fit.Coefficients[i]), num(se))
	}
	fmt.Fprintf(b, "| Log(scale) | %s | %s |\n\n", num(fit.LogScale), num(fit.LogScaleStdErr()))
	fmt.Fprintf(b, "Scale %s (Weibull shape %s, Weibull scale %s), log-likelihood %s, %d iterations.\n\n",
		num(fit.Scale), num(fit.Shape()), num(fit.WeibullScale()), num(fit.LogLikelihood), fit.Iterations)
}

func writeCoxSection(b *bytes.Buffer, report *comparison.Report) {
	fit := report.Cox
	if fit == nil {
		return
	}
	b.WriteString("## Cox PH\n\n")
	if len(fit.Coefficients) == 0 {
		fmt.Fprintf(b, "No covariates: the model has no coefficients and the Breslow baseline is the Kaplan-Meier estimate "+
			"(largest survival gap %s). Log partial likelihood %s.\n\n", num(report.MaxKMCoxGap()), num(fit.LogLikelihood))
		return
	}
	b.WriteString("| Term | Coefficient | Hazard ratio | Std. error |\n|---|---:|---:|---:|\n")
	hr := fit.HazardRatios()
	for i, name := range fit.CoefficientNames {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", name, num(fit.Coefficients[i]), num(hr[i]), num(fit.StdErr[i]))
	}
	fmt.Fprintf(b, "\nLog partial likelihood %s, likelihood ratio %s, %d iterations.\n\n",
		num(fit.LogLikelihood), num(fit.LikelihoodRatio()), fit.Iterations)
}

// num formats a value with four decimals, or n/a when undefined
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

// HTMLReport converts the markdown report into a standalone HTML page
type HTMLReport struct {
	markdown *MarkdownReport
}

// NewHTMLReport wraps a markdown renderer
func NewHTMLReport(md *MarkdownReport) *HTMLReport {
	return &HTMLReport{markdown: md}
}

// Render produces a complete HTML document
func (h *HTMLReport) Render(report *comparison.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: reportTitle,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(h.markdown.Render(report), p, renderer)
}
