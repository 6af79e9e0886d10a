package excel

import (
	"fmt"
	"io"
	"math"

	"gosurv/domain/comparison"
	"gosurv/domain/survival"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the report workbook
const (
	SheetQuartiles        = "Quartiles"
	SheetSurvival         = "Survival"
	SheetCumulativeHazard = "CumulativeHazard"
	SheetFits             = "Fits"
)

// WorkbookWriter exports a comparison report as an .xlsx workbook
type WorkbookWriter struct{}

// NewWorkbookWriter creates a new workbook writer
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{}
}

// Write renders the report into w
func (ww *WorkbookWriter) Write(w io.Writer, report *comparison.Report) error {
	f, err := ww.Build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller closes the file.
func (ww *WorkbookWriter) Build(report *comparison.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	// Sheet1 always exists in a new file; reuse it for the quartiles
	if err := f.SetSheetName("Sheet1", SheetQuartiles); err != nil {
		f.Close()
		return nil, err
	}
	steps := []func(*excelize.File, *comparison.Report) error{
		writeQuartiles,
		func(f *excelize.File, r *comparison.Report) error {
			return writeSeries(f, SheetSurvival, r.Grid, r.Survival)
		},
		func(f *excelize.File, r *comparison.Report) error {
			return writeSeries(f, SheetCumulativeHazard, r.Grid, r.CumulativeHazard)
		},
		writeFits,
	}
	for _, step := range steps {
		if err := step(f, report); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeQuartiles(f *excelize.File, report *comparison.Report) error {
	if err := f.SetSheetRow(SheetQuartiles, "A1", &[]interface{}{"Method", "Q1 (25%)", "Median (50%)", "Q3 (75%)"}); err != nil {
		return err
	}
	for i, row := range report.Quartiles.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{row.Method.Label()}
		for _, v := range row.Quartiles.Values() {
			values = append(values, cellValue(v))
		}
		if err := f.SetSheetRow(SheetQuartiles, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func writeSeries(f *excelize.File, sheet string, grid []float64, series []comparison.Series) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"t"}
	for _, s := range series {
		header = append(header, s.Method.Label())
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, t := range grid {
		row := []interface{}{t}
		for _, s := range series {
			row = append(row, cellValue(s.Values[i]))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeFits(f *excelize.File, report *comparison.Report) error {
	if _, err := f.NewSheet(SheetFits); err != nil {
		return err
	}
	rows := [][]interface{}{{"Model", "Parameter", "Estimate", "Std. error"}}
	if fit := report.AFT; fit != nil {
		for i, name := range fit.CoefficientNames {
			rows = append(rows, []interface{}{survival.MethodWeibullAFT.Label(), name, fit.Coefficients[i], stdErrAt(fit.StdErr, i)})
		}
		rows = append(rows,
			[]interface{}{survival.MethodWeibullAFT.Label(), "log(scale)", fit.LogScale, fit.LogScaleStdErr()},
			[]interface{}{survival.MethodWeibullAFT.Label(), "scale", fit.Scale, ""},
			[]interface{}{survival.MethodWeibullAFT.Label(), "log-likelihood", fit.LogLikelihood, ""},
		)
	}
	if fit := report.Cox; fit != nil {
		for i, name := range fit.CoefficientNames {
			rows = append(rows, []interface{}{survival.MethodCox.Label(), name, fit.Coefficients[i], stdErrAt(fit.StdErr, i)})
		}
		rows = append(rows, []interface{}{survival.MethodCox.Label(), "log partial likelihood", fit.LogLikelihood, ""})
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetFits, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func stdErrAt(se []float64, i int) interface{} {
	if i < len(se) {
		return cellValue(se[i])
	}
	return ""
}

// cellValue leaves undefined numbers as empty cells
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}
