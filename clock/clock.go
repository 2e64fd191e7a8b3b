// Package clock normalizes raw inspection-sheet clock-position cells into a
// decimal hour in (0, 12], and computes circular distance between two such
// values.
package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is the result of normalizing one raw cell: the original text (or a
// stringified fallback) and the resolved decimal hour, or nil if no decimal
// form could be derived.
type Value struct {
	Raw     string
	Decimal *float64
}

// wrapToTwelve maps a raw modular hour value onto (0, 12], folding 0 to 12
// exactly as the rule order prescribes for every branch.
func wrapToTwelve(h float64) float64 {
	m := math.Mod(h, 12)
	if m < 0 {
		m += 12
	}
	if m == 0 {
		return 12
	}
	return m
}

// Normalize applies the rule order to an arbitrary cell value. Typed
// inputs (time.Time, float64, int, string) are recognized directly;
// anything else falls through to the final (raw, nil) branch via its
// string representation.
func Normalize(cell interface{}) Value {
	switch v := cell.(type) {
	case nil:
		return Value{Raw: "", Decimal: nil}
	case time.Time:
		h := float64(v.Hour()%12) + float64(v.Minute())/60.0
		dec := wrapToTwelve(h)
		return Value{Raw: v.Format("15:04"), Decimal: &dec}
	case float64:
		return normalizeNumeric(strconv.FormatFloat(v, 'g', -1, 64), v)
	case int:
		return normalizeNumeric(strconv.Itoa(v), float64(v))
	case string:
		return normalizeString(v)
	default:
		return Value{Raw: fmt.Sprint(v), Decimal: nil}
	}
}

// normalizeNumeric implements the two numeric branches: a value in
// [0,1] is a fractional day, otherwise it is taken as an hour value
// (mod 12).
func normalizeNumeric(raw string, v float64) Value {
	if strings.TrimSpace(raw) == "" {
		return Value{Raw: raw, Decimal: nil}
	}
	var dec float64
	if v >= 0 && v <= 1 {
		dec = wrapToTwelve(v * 24)
	} else {
		dec = wrapToTwelve(v)
	}
	return Value{Raw: raw, Decimal: &dec}
}

// normalizeString handles the "h:m..." and numeric-parseable-string
// branches, falling back to (raw, nil) if neither applies.
func normalizeString(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Value{Raw: s, Decimal: nil}
	}
	if idx := strings.IndexByte(trimmed, ':'); idx >= 0 {
		hPart := trimmed[:idx]
		mPart := trimmed[idx+1:]
		if j := strings.IndexAny(mPart, " \t"); j >= 0 {
			mPart = mPart[:j]
		}
		h, errH := strconv.ParseFloat(strings.TrimSpace(hPart), 64)
		m, errM := strconv.ParseFloat(strings.TrimSpace(mPart), 64)
		if errH == nil && errM == nil {
			dec := wrapToTwelve(math.Mod(h, 12) + m/60.0)
			return Value{Raw: s, Decimal: &dec}
		}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return normalizeNumeric(s, f)
	}
	return Value{Raw: s, Decimal: nil}
}

// CircularDistance returns the circular distance between two clock values
// a, b in (0,12], defined as min(|a mod 12 - b mod 12|, 12 - that) — always
// in [0, 6].
func CircularDistance(a, b float64) float64 {
	am := math.Mod(a, 12)
	bm := math.Mod(b, 12)
	d := math.Abs(am - bm)
	if 12-d < d {
		d = 12 - d
	}
	return d
}
