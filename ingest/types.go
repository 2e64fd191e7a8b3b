// Package ingest reads raw inspection data off disk (CSV or a multi-sheet
// tabular workbook) into per-run row data, leaving all parsing/coercion to
// the normalizer downstream.
package ingest

import "regexp"

// yearSheetPattern matches workbook sheet names that represent an
// inspection year; such sheets are processed in ascending numeric order.
var yearSheetPattern = regexp.MustCompile(`\d{4}`)

// RawRun is one unparsed inspection run: a Summary-sheet-derived header
// (when available) plus the sheet's own header row and raw cell values.
// Cells are preserved exactly as the source reports them — numeric cells
// are never coerced into dates here, so the date parser sees the
// original value.
type RawRun struct {
	Year              int
	Label             string
	Vendor            string
	ToolTypeRaw       string
	InspectionDateRaw interface{}
	StartOdometerFt   float64
	EndOdometerFt     float64
	Headers           []string
	Rows              [][]interface{}
}
