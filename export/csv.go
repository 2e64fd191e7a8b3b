package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func sortStrings(s []string) { sort.Strings(s) }

// escapeCSVField quotes a field if it contains a comma, double quote, or
// newline, doubling any embedded quote.
func escapeCSVField(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

func writeCSVRow(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeCSVField(f))
	}
	sb.WriteString("\r\n")
}

// RenderCSV renders rows (each keyed by column name) against columns plus
// any extra keys discovered across rows, sorted lexicographically and
// appended after columns.
func RenderCSV(columns []string, rows []map[string]string) string {
	extras := ExtraKeys(rows, columns)
	header := append(append([]string(nil), columns...), extras...)

	var sb strings.Builder
	writeCSVRow(&sb, header)
	for _, row := range rows {
		fields := make([]string, len(header))
		for i, c := range header {
			fields[i] = row[c]
		}
		writeCSVRow(&sb, fields)
	}
	return sb.String()
}

// WriteMatchesCSV renders pairs and writes them to <dir>/matches.csv.
func WriteMatchesCSV(dir string, rows []map[string]string) (string, error) {
	return writeCSVFile(dir, "matches.csv", MatchColumns, rows)
}

// WriteExceptionsCSV renders exception rows and writes them to
// <dir>/exceptions.csv.
func WriteExceptionsCSV(dir string, rows []map[string]string) (string, error) {
	return writeCSVFile(dir, "exceptions.csv", ExceptionColumns(), rows)
}

func writeCSVFile(dir, name string, columns []string, rows []map[string]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	content := RenderCSV(columns, rows)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("export: writing %s: %w", path, err)
	}
	return path, nil
}
