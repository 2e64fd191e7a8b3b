// Package dateparse resolves an inspection-sheet date cell to a concrete
// time.Time, a source classification, and a confidence score.
// It never returns an invalid date: every branch either succeeds within the
// 1950-2050 validity window or falls through to the next.
package dateparse

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pipeintel/ilialign/core"
)

// MinYear and MaxYear bound every accepted inspection date.
const (
	MinYear = 1950
	MaxYear = 2050
)

// Excel serial-date bounds recognized as "serial" inputs.
const (
	serialMin = 18264
	serialMax = 54789
)

// Unix-seconds bounds recognized as "unix" inputs.
const (
	unixMin = 1e9
	unixMax = 3e9
)

// excelEpoch is the day-zero of the Excel 1900 date system.
var excelEpoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

// Oracle is the deterministic-fast-path-exhausted fallback used when no
// regex or numeric rule resolves a date string. Implementations must
// return ctx.Err() promptly on cancellation.
type Oracle interface {
	ResolveDate(ctx context.Context, raw string) (iso string, ok bool)
}

// Result is the outcome of parsing one date cell.
type Result struct {
	When       time.Time
	Source     core.DateSource
	Confidence float64
	Warning    string
}

var (
	reISO      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	reUS       = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reSlashISO = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	reDDMonYYYY = regexp.MustCompile(`(?i)^(\d{1,2})\s+([a-z]{3,9})\s+(\d{4})$`)
	reTextual   = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})$`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

func inWindow(y int) bool { return y >= MinYear && y <= MaxYear }

// Parse resolves cell (the raw sheet value) to a Result, trying each branch
// of the recognized formats in order. contextYear, if non-zero, backs the empty-cell fallback.
// oracle may be nil, in which case the oracle branch is skipped and a
// warning is recorded instead.
func Parse(ctx context.Context, cell interface{}, contextYear int, oracle Oracle) Result {
	switch v := cell.(type) {
	case nil:
		return emptyResult(contextYear)
	case time.Time:
		if inWindow(v.Year()) {
			return Result{When: v, Source: core.DateSourceNative, Confidence: 1.0}
		}
		return fallback(ctx, v.Format(time.RFC3339), oracle)
	case float64:
		return parseNumeric(ctx, v, oracle)
	case int:
		return parseNumeric(ctx, float64(v), oracle)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return emptyResult(contextYear)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return parseNumeric(ctx, f, oracle)
		}
		return parseString(ctx, s, oracle)
	default:
		return Result{Source: core.DateSourceNone, Warning: "unrecognized date cell type"}
	}
}

func emptyResult(contextYear int) Result {
	if contextYear > 0 {
		return Result{
			When:       time.Date(contextYear, time.January, 1, 0, 0, 0, 0, time.UTC),
			Source:     core.DateSourceContext,
			Confidence: 0.3,
		}
	}
	return Result{Source: core.DateSourceNone, Warning: "empty date cell with no context year"}
}

func parseNumeric(ctx context.Context, f float64, oracle Oracle) Result {
	if !math.IsNaN(f) && f >= serialMin && f <= serialMax {
		days := f
		if f > 59 {
			days-- // 1900 leap-year compensation
		}
		when := excelEpoch.AddDate(0, 0, int(days))
		return Result{When: when, Source: core.DateSourceSerial, Confidence: 1.0}
	}
	if !math.IsNaN(f) && f >= unixMin && f <= unixMax {
		when := time.Unix(int64(f), 0).UTC()
		if inWindow(when.Year()) {
			return Result{When: when, Source: core.DateSourceUnix, Confidence: 0.7}
		}
	}
	return fallback(ctx, strconv.FormatFloat(f, 'g', -1, 64), oracle)
}

func parseString(ctx context.Context, s string, oracle Oracle) Result {
	if m := reISO.FindStringSubmatch(s); m != nil {
		if r, ok := buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return r
		}
	}
	if m := reUS.FindStringSubmatch(s); m != nil {
		if r, ok := buildDate(atoi(m[3]), atoi(m[1]), atoi(m[2])); ok {
			return r
		}
	}
	if m := reSlashISO.FindStringSubmatch(s); m != nil {
		if r, ok := buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return r
		}
	}
	if m := reTextual.FindStringSubmatch(s); m != nil {
		if mon, known := monthNames[strings.ToLower(m[1])]; known {
			if r, ok := buildDateMonth(atoi(m[3]), mon, atoi(m[2])); ok {
				return r
			}
		}
	}
	if m := reDDMonYYYY.FindStringSubmatch(s); m != nil {
		if mon, known := monthNames[strings.ToLower(m[2])]; known {
			if r, ok := buildDateMonth(atoi(m[3]), mon, atoi(m[1])); ok {
				return r
			}
		}
	}
	return fallback(ctx, s, oracle)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func buildDate(year, month, day int) (Result, bool) {
	if !inWindow(year) || month < 1 || month > 12 || day < 1 || day > 31 {
		return Result{}, false
	}
	return buildDateMonth(year, time.Month(month), day)
}

func buildDateMonth(year int, month time.Month, day int) (Result, bool) {
	if !inWindow(year) || day < 1 || day > 31 {
		return Result{}, false
	}
	return Result{
		When:       time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Source:     core.DateSourceString,
		Confidence: 1.0,
	}, true
}

func fallback(ctx context.Context, raw string, oracle Oracle) Result {
	if oracle != nil {
		if iso, ok := oracle.ResolveDate(ctx, raw); ok {
			if m := reISO.FindStringSubmatch(iso); m != nil {
				if r, ok := buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
					r.Source = core.DateSourceOracle
					r.Confidence = 0.8
					return r
				}
			}
		}
	}
	return Result{Source: core.DateSourceNone, Warning: "unparseable date: " + raw}
}
