package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gosurv/domain/survival"
	"gosurv/internal"
	apperrors "gosurv/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Column headers of a sample file
const (
	ColumnTime   = "time"
	ColumnStatus = "status"
)

// DataReader loads a right-censored sample from an Excel or CSV file with a
// header row containing "time" and "status" columns
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.Nop()
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger}
}

// ReadSample reads the file into a sample. The spec describes the laws the
// data is compared against; its Size is replaced by the number of rows read.
func (r *DataReader) ReadSample(spec survival.SampleSpec) (*survival.Sample, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	readStart := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] %s file read in %.2fms (%d rows)",
		strings.ToUpper(r.fileType), float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType)))
	}

	subjects, err := processRows(rows)
	if err != nil {
		return nil, err
	}
	spec.Size = len(subjects)
	sample, err := survival.NewSample(spec, subjects)
	if err != nil {
		return nil, apperrors.InvalidInput(r.filePath, err)
	}
	return sample, nil
}

// readExcelRows reads Sheet1, or the first sheet when there is none
func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into subjects
func processRows(rows [][]string) ([]survival.Subject, error) {
	timeCol, statusCol := -1, -1
	for i, header := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case ColumnTime:
			timeCol = i
		case ColumnStatus:
			statusCol = i
		}
	}
	if timeCol < 0 || statusCol < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("header must contain %q and %q columns", ColumnTime, ColumnStatus))
	}

	subjects := make([]survival.Subject, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= timeCol || len(row) <= statusCol {
			return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("row %d: missing time or status", i+1))
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(row[timeCol]), 64)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("row %d: invalid time %q", i+1, row[timeCol]), err)
		}
		status, err := parseStatus(row[statusCol])
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("row %d", i+1), err)
		}
		subjects = append(subjects, survival.Subject{Time: t, Status: status})
	}
	return subjects, nil
}

func parseStatus(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "event", "failure":
		return true, nil
	case "0", "false", "censored":
		return false, nil
	default:
		return false, fmt.Errorf("invalid status %q", raw)
	}
}
