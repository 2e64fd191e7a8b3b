package export

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook emits a multi-sheet tabular workbook at <dir>/<jobID>.xlsx
// with matches/exceptions/audit sheets, column order matching the CSV
// exports exactly.
func WriteWorkbook(dir, jobID string, matchRows, exceptionRows, auditRows []map[string]string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "matches", MatchColumns, matchRows, true); err != nil {
		return "", err
	}
	if err := writeSheet(f, "exceptions", ExceptionColumns(), exceptionRows, false); err != nil {
		return "", err
	}
	if err := writeSheet(f, "audit", AuditColumns, auditRows, false); err != nil {
		return "", err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	path := filepath.Join(dir, jobID+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("export: saving workbook %s: %w", path, err)
	}
	return path, nil
}

// writeSheet creates sheet with header+rows. When extendColumns is true,
// the lexicographically-sorted extra keys found across rows are appended
// after columns, matching the CSV export's header shape.
func writeSheet(f *excelize.File, sheet string, columns []string, rows []map[string]string, extendColumns bool) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("export: creating sheet %q: %w", sheet, err)
	}

	header := columns
	if extendColumns {
		extras := ExtraKeys(rows, columns)
		header = append(append([]string(nil), columns...), extras...)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for col, name := range header {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, row[name]); err != nil {
				return err
			}
		}
	}
	return nil
}
