// Package columnmap resolves per-year raw inspection-sheet headers to the
// canonical feature schema, via a known-mapping table, normalized
// header text, and an edit-distance fallback.
package columnmap

import (
	"strings"
)

// CanonicalFields is the ordered set of canonical schema fields.
var CanonicalFields = []string{
	"joint_number",
	"joint_length_ft",
	"wall_thickness_in",
	"dist_to_upstream_weld_ft",
	"dist_to_downstream_weld_ft",
	"log_distance_ft",
	"event_type",
	"depth_percent",
	"depth_in",
	"length_in",
	"width_in",
	"clock_position",
	"elevation_ft",
	"comments",
}

// maxEditDistance is the edit-distance fallback threshold.
const maxEditDistance = 10

// knownYearMaps holds the fixed 2007/2015/2022 header shapes.
// Keys are raw header text lowercased and trimmed (Resolve compares each
// header in that form); values are canonical field names.
var knownYearMaps = map[string]map[string]string{
	"2007": {
		"joint #":        "joint_number",
		"joint len (ft)": "joint_length_ft",
		"wt (in)":        "wall_thickness_in",
		"us dist (ft)":   "dist_to_upstream_weld_ft",
		"ds dist (ft)":   "dist_to_downstream_weld_ft",
		"log dist (ft)":  "log_distance_ft",
		"feature":        "event_type",
		"depth %":        "depth_percent",
		"depth (in)":     "depth_in",
		"length (in)":    "length_in",
		"width (in)":     "width_in",
		"o'clock":        "clock_position",
		"elevation (ft)": "elevation_ft",
		"comment":        "comments",
	},
	"2015": {
		"joint number":          "joint_number",
		"joint length ft":       "joint_length_ft",
		"wall thickness in":     "wall_thickness_in",
		"upstream weld dist ft": "dist_to_upstream_weld_ft",
		"downstream weld dist ft": "dist_to_downstream_weld_ft",
		"log distance ft":       "log_distance_ft",
		"event type":            "event_type",
		"depth pct":             "depth_percent",
		"depth in":              "depth_in",
		"length in":             "length_in",
		"width in":              "width_in",
		"clock position":        "clock_position",
		"elevation ft":          "elevation_ft",
		"comments":              "comments",
	},
	"2022": {
		"joint_number":               "joint_number",
		"joint_length_ft":            "joint_length_ft",
		"wall_thickness_in":          "wall_thickness_in",
		"dist_to_upstream_weld_ft":   "dist_to_upstream_weld_ft",
		"dist_to_downstream_weld_ft": "dist_to_downstream_weld_ft",
		"log_distance_ft":            "log_distance_ft",
		"event_type":                 "event_type",
		"depth_percent":              "depth_percent",
		"depth_in":                   "depth_in",
		"length_in":                  "length_in",
		"width_in":                   "width_in",
		"clock_position":             "clock_position",
		"elevation_ft":               "elevation_ft",
		"comments":                   "comments",
	},
}

// canonicalWords is CanonicalFields with underscores split into words, used
// by the edit-distance fallback to compare against a normalized header.
var canonicalWords = buildCanonicalWords()

func buildCanonicalWords() map[string]string {
	m := make(map[string]string, len(CanonicalFields))
	for _, f := range CanonicalFields {
		m[f] = strings.ReplaceAll(f, "_", " ")
	}
	return m
}

// normalizeHeader lowercases, collapses whitespace, and strips punctuation
// except `%./[]`.
func normalizeHeader(h string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(h) {
		switch {
		case r == ' ' || r == '\t' || r == '_' || r == '-':
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case r == '%' || r == '.' || r == '/' || r == '[' || r == ']':
			b.WriteRune(r)
			prevSpace = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevSpace = false
		default:
			// strip all other punctuation
		}
	}
	return strings.TrimSpace(b.String())
}

// editDistance is a standard Levenshtein edit distance.
func editDistance(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Mapping is a total map from canonical field name to a resolved raw
// header, or "" when unresolved.
type Mapping map[string]string

// Resolve builds a total Mapping for the given raw headers, trying, for
// each canonical field, (a) the year's known table, (b) normalized-header
// equality, then (c) edit distance <= 10 against the canonical field words.
func Resolve(year string, headers []string) Mapping {
	result := make(Mapping, len(CanonicalFields))
	for _, f := range CanonicalFields {
		result[f] = ""
	}

	known := knownYearMaps[year]

	normalizedHeaders := make([]string, len(headers))
	for i, h := range headers {
		normalizedHeaders[i] = normalizeHeader(h)
	}

	for _, field := range CanonicalFields {
		// (a) exact match against the year's known-mapping table.
		if known != nil {
			resolved := false
			for _, h := range headers {
				if canon, ok := known[strings.ToLower(strings.TrimSpace(h))]; ok && canon == field {
					result[field] = h
					resolved = true
					break
				}
			}
			if resolved {
				continue
			}
		}

		// (b) normalized header text equals the canonical field's own
		// normalized form.
		target := normalizeHeader(field)
		resolved := false
		for i, nh := range normalizedHeaders {
			if nh == target {
				result[field] = headers[i]
				resolved = true
				break
			}
		}
		if resolved {
			continue
		}

		// (c) edit distance <= 10 against the canonical field words,
		// picking the closest header.
		bestDist := maxEditDistance + 1
		bestHeader := ""
		words := canonicalWords[field]
		for i, nh := range normalizedHeaders {
			d := editDistance(nh, words)
			if d < bestDist {
				bestDist = d
				bestHeader = headers[i]
			}
		}
		if bestDist <= maxEditDistance {
			result[field] = bestHeader
		}
	}

	return result
}
