package render

import (
	"context"
	"fmt"
	"io"

	"gosurv/domain/comparison"
	"gosurv/domain/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// ConsoleSink prints the quartile table and fit summary to a terminal
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a sink writing to out
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Name identifies the sink in logs
func (c *ConsoleSink) Name() string { return "console" }

// Publish writes the summary; the console produces no artifacts
func (c *ConsoleSink) Publish(ctx context.Context, report *comparison.Report) ([]core.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, err := fmt.Fprintln(c.out, Summary(report))
	return nil, err
}

// Summary renders the console view of a report
func Summary(report *comparison.Report) string {
	s := report.Sample
	out := titleStyle.Render(reportTitle) + "\n"
	out += mutedStyle.Render(fmt.Sprintf("run %s  n=%d  events=%d  censored=%.1f%%",
		report.RunID, s.N, s.Events, 100*s.CensoredFraction)) + "\n\n"

	if fit := report.AFT; fit != nil {
		out += fmt.Sprintf("Weibull AFT  intercept %s  scale %s  log-lik %s\n",
			num(fit.Intercept()), num(fit.Scale), num(fit.LogLikelihood))
	}
	if fit := report.Cox; fit != nil {
		out += fmt.Sprintf("Cox PH       log partial lik %s  max |S_KM - S_Cox| %s\n",
			num(fit.LogLikelihood), num(report.MaxKMCoxGap()))
	}
	return out + "\n" + QuartileTable(report)
}

// QuartileTable renders the 4 x 3 quartile table
func QuartileTable(report *comparison.Report) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Method", "25%", "50%", "75%").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range report.Quartiles.Rows {
		q := row.Quartiles.Values()
		t.Row(row.Method.Label(), num(q[0]), num(q[1]), num(q[2]))
	}
	return t.Render()
}
