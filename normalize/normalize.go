package normalize

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pipeintel/ilialign/clock"
	"github.com/pipeintel/ilialign/columnmap"
	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/dateparse"
	"github.com/pipeintel/ilialign/eventtype"
	"github.com/pipeintel/ilialign/ingest"
)

// toolTypeAliases maps common tool-vendor spellings to the canonical
// ToolType set; anything unrecognized reports ToolUnknown.
var toolTypeAliases = map[string]core.ToolType{
	"mfl":          core.ToolMFL,
	"magnetic flux leakage": core.ToolMFL,
	"ut":           core.ToolUT,
	"ultrasonic":   core.ToolUT,
	"caliper":      core.ToolCaliper,
	"geometry":     core.ToolCaliper,
	"combo":        core.ToolCombo,
	"combination":  core.ToolCombo,
}

func canonicalizeToolType(raw string) core.ToolType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := toolTypeAliases[key]; ok {
		return t
	}
	return core.ToolUnknown
}

// NormalizeRun turns one ingested run into its persisted Run record and
// ordered Feature list. Event-type canonicalization runs as a
// single cached pass over the run's unique raw strings before features are
// built.
func NormalizeRun(ctx context.Context, raw ingest.RawRun, oracle Oracle) (*core.Run, []*core.Feature) {
	dateResult := dateparse.Parse(ctx, raw.InspectionDateRaw, raw.Year, oracle)

	run := &core.Run{
		ID:              fmt.Sprintf("run-%d", raw.Year),
		InspectionYear:  raw.Year,
		Label:           raw.Label,
		Vendor:          raw.Vendor,
		ToolType:        canonicalizeToolType(raw.ToolTypeRaw),
		InspectionDate:  dateResult.When,
		DateSource:      dateResult.Source,
		DateConfidence:  dateResult.Confidence,
		StartOdometerFt: raw.StartOdometerFt,
		EndOdometerFt:   raw.EndOdometerFt,
		RowCount:        len(raw.Rows),
	}

	mapping := columnmap.Resolve(strconv.Itoa(raw.Year), raw.Headers)
	headerIdx := make(map[string]int, len(raw.Headers))
	for i, h := range raw.Headers {
		headerIdx[h] = i
	}

	// Collect every unique raw event string across the run, then
	// canonicalize each exactly once.
	uniqueEvents := make(map[string]struct{})
	for _, row := range raw.Rows {
		uniqueEvents[fmt.Sprint(cellAt(row, headerIdx, mapping, "event_type"))] = struct{}{}
	}
	canonical := make(map[string]core.EventType, len(uniqueEvents))
	for e := range uniqueEvents {
		canonical[e] = eventtype.Canonicalize(ctx, e, oracle)
	}

	features := make([]*core.Feature, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		rawEvent := fmt.Sprint(cellAt(row, headerIdx, mapping, "event_type"))

		f := &core.Feature{
			ID:              fmt.Sprintf("%s-f%d", run.ID, i+1),
			RunID:           run.ID,
			RowIndex:        i + 1,
			JointNumber:     coerceInt(cellAt(row, headerIdx, mapping, "joint_number")),
			JointLengthFt:   coerceFloat(cellAt(row, headerIdx, mapping, "joint_length_ft")),
			WallThicknessIn: coerceFloat(cellAt(row, headerIdx, mapping, "wall_thickness_in")),
			RawEventType:    rawEvent,
			CanonicalType:   canonical[rawEvent],
			DepthPercent:    coerceFloat(cellAt(row, headerIdx, mapping, "depth_percent")),
			DepthIn:         coerceFloat(cellAt(row, headerIdx, mapping, "depth_in")),
			LengthIn:        coerceFloat(cellAt(row, headerIdx, mapping, "length_in")),
			WidthIn:         coerceFloat(cellAt(row, headerIdx, mapping, "width_in")),
			ElevationFt:     coerceFloat(cellAt(row, headerIdx, mapping, "elevation_ft")),
			Comments:        fmt.Sprint(cellAt(row, headerIdx, mapping, "comments")),
		}
		if v := coerceFloat(cellAt(row, headerIdx, mapping, "log_distance_ft")); v != nil {
			f.LogDistanceFt = *v
		}

		cv := clock.Normalize(cellAt(row, headerIdx, mapping, "clock_position"))
		f.ClockRaw = cv.Raw
		f.ClockDecimal = cv.Decimal

		f.DeriveIsReferencePoint()
		features = append(features, f)
	}

	return run, features
}

// AggregateDataset folds one run's row count into a Dataset's running
// totals, called once per run after it persists.
func AggregateDataset(ds *core.Dataset, run *core.Run) {
	ds.RunIDs = append(ds.RunIDs, run.ID)
	ds.RowTotal += run.RowCount
}

// cellAt looks up a canonical field's raw cell in row, using mapping to
// find the raw header and headerIdx to find its column; returns nil when
// the field is unmapped or the row is short.
func cellAt(row []interface{}, headerIdx map[string]int, mapping columnmap.Mapping, field string) interface{} {
	header := mapping[field]
	if header == "" {
		return nil
	}
	idx, ok := headerIdx[header]
	if !ok || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// coerceFloat parses cell into a float64, returning nil for an empty cell,
// an unparseable value, or a non-finite result ("non-finite maps to null").
func coerceFloat(cell interface{}) *float64 {
	if cell == nil {
		return nil
	}
	s := strings.TrimSpace(fmt.Sprint(cell))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func coerceInt(cell interface{}) *int {
	f := coerceFloat(cell)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}
