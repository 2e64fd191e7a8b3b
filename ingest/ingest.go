package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySheet indicates a sheet (or CSV file) had no rows at all, not
// even a header.
var ErrEmptySheet = errors.New("ingest: sheet has no rows")

// cellReader abstracts workbook access so ParseWorkbook can be exercised
// against a fake in tests without touching the filesystem.
type cellReader interface {
	SheetList() []string
	Rows(sheet string) ([][]interface{}, error)
}

// excelizeReader adapts *excelize.File to cellReader, reading raw
// (unformatted) cell values so numeric cells are never silently coerced
// into formatted dates.
type excelizeReader struct {
	f *excelize.File
}

func (r *excelizeReader) SheetList() []string { return r.f.GetSheetList() }

func (r *excelizeReader) Rows(sheet string) ([][]interface{}, error) {
	rows, err := r.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		out[i] = cells
	}
	return out, nil
}

// ParseWorkbookFile opens a tabular workbook and extracts its year sheets.
func ParseWorkbookFile(path string) ([]RawRun, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open workbook: %w", err)
	}
	defer f.Close()
	return ParseWorkbook(&excelizeReader{f: f})
}

// ParseWorkbook reads every sheet whose name matches a four-digit year,
// ascending numerically, pulling vendor/tool/date/odometer fields from an
// optional "Summary" sheet indexed positionally to the sorted year list.
func ParseWorkbook(reader cellReader) ([]RawRun, error) {
	var summaryRows [][]interface{}
	var yearSheets []string

	for _, s := range reader.SheetList() {
		if s == "Summary" {
			rows, err := reader.Rows(s)
			if err != nil {
				return nil, fmt.Errorf("ingest: summary sheet: %w", err)
			}
			if len(rows) > 1 {
				summaryRows = rows[1:]
			}
			continue
		}
		if yearSheetPattern.MatchString(s) {
			yearSheets = append(yearSheets, s)
		}
	}

	sort.Slice(yearSheets, func(i, j int) bool {
		return sheetYear(yearSheets[i]) < sheetYear(yearSheets[j])
	})

	runs := make([]RawRun, 0, len(yearSheets))
	for i, name := range yearSheets {
		rows, err := reader.Rows(name)
		if err != nil {
			return nil, fmt.Errorf("ingest: sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}

		run := RawRun{Year: sheetYear(name), Label: name}
		run.Headers = stringRow(rows[0])
		run.Rows = rows[1:]

		if i < len(summaryRows) {
			sr := summaryRows[i]
			run.Vendor = cellString(sr, 0)
			run.ToolTypeRaw = cellString(sr, 1)
			if len(sr) > 2 {
				run.InspectionDateRaw = sr[2]
			}
			run.StartOdometerFt = cellFloat(sr, 3)
			run.EndOdometerFt = cellFloat(sr, 4)
		}

		runs = append(runs, run)
	}
	return runs, nil
}

// ParseCSV reads a single header-first CSV file into one synthetic
// "current year" run. currentYear is supplied by the caller rather
// than derived internally, keeping the parse deterministic and testable.
func ParseCSV(r io.Reader, currentYear int) (RawRun, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return RawRun{}, fmt.Errorf("ingest: csv: %w", err)
	}
	if len(records) == 0 {
		return RawRun{}, ErrEmptySheet
	}

	rows := make([][]interface{}, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]interface{}, len(rec))
		for j, cell := range rec {
			row[j] = cell
		}
		rows[i] = row
	}

	return RawRun{
		Year:    currentYear,
		Label:   strconv.Itoa(currentYear),
		Headers: records[0],
		Rows:    rows,
	}, nil
}

func sheetYear(name string) int {
	y, _ := strconv.Atoi(yearSheetPattern.FindString(name))
	return y
}

func stringRow(row []interface{}) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = fmt.Sprint(c)
	}
	return out
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}

func cellFloat(row []interface{}, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	switch v := row[idx].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}
