package excel

import (
	"encoding/csv"
	"io"
	"strconv"

	"gosurv/domain/survival"

	"github.com/xuri/excelize/v2"
)

// WriteSampleCSV writes one "time,status" row per subject
func WriteSampleCSV(w io.Writer, sample *survival.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnTime, ColumnStatus}); err != nil {
		return err
	}
	for i := 0; i < sample.Len(); i++ {
		s := sample.Subject(i)
		if err := cw.Write([]string{strconv.FormatFloat(s.Time, 'g', -1, 64), statusString(s.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSampleXLSX writes the sample to Sheet1 of a new workbook at path
func WriteSampleXLSX(path string, sample *survival.Sample) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{ColumnTime, ColumnStatus}); err != nil {
		return err
	}
	for i := 0; i < sample.Len(); i++ {
		s := sample.Subject(i)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{s.Time, statusString(s.Status)}); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func statusString(event bool) string {
	if event {
		return "1"
	}
	return "0"
}
