package export

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pipeintel/ilialign/core"
)

func floatStr(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floatPtrStr(v *float64) string {
	if v == nil {
		return ""
	}
	return floatStr(*v)
}

func intPtrStr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func boolStr(b bool) string {
	return strconv.FormatBool(b)
}

func joinSemicolon(vals []string) string {
	return strings.Join(vals, ";")
}

// FlattenMatch flattens one MatchedPair into MatchColumns' keys. Nested
// StandardsApplied fields use a dot-delimited key; CompetingOlderIDs and
// PHMSA list fields are joined with ';'. A nil StandardsApplied
// (not yet annotated by C14) leaves every standards_applied.* key empty.
func FlattenMatch(p core.MatchedPair) map[string]string {
	row := map[string]string{
		"id":                      p.ID,
		"job_id":                  p.JobID,
		"older_feature_id":        p.OlderFeatureID,
		"newer_feature_id":        p.NewerFeatureID,
		"older_run_id":            p.OlderRunID,
		"newer_run_id":            p.NewerRunID,
		"distance_residual_ft":    floatStr(p.DistanceResidualFt),
		"clock_residual_hr":       floatPtrStr(p.ClockResidualHr),
		"type_compatibility":      floatStr(p.TypeCompatibility),
		"dimensional_similarity":  floatStr(p.DimensionalSimilarity),
		"confidence_score":        floatStr(p.ConfidenceScore),
		"confidence_category":    string(p.ConfidenceCategory),
		"match_category":          string(p.MatchCategory),
		"depth_growth_pct_per_yr": floatPtrStr(p.DepthGrowthPctPerYr),
		"length_growth_in_per_yr": floatPtrStr(p.LengthGrowthInPerYr),
		"width_growth_in_per_yr":  floatPtrStr(p.WidthGrowthInPerYr),
		"years_between":           floatStr(p.YearsBetween),
		"competing_older_ids":     joinSemicolon(p.CompetingOlderIDs),
		"is_primary_match":        boolStr(p.IsPrimaryMatch),
	}

	for _, k := range []string{
		"standards_applied.severity",
		"standards_applied.repair_recommendation",
		"standards_applied.remaining_life_years",
		"standards_applied.adjusted_confidence",
		"standards_applied.tool_qualification_notes",
		"standards_applied.growth_class",
		"standards_applied.reassessment_years",
		"standards_applied.interaction_zone",
		"standards_applied.combined_depth_percent",
		"standards_applied.phmsa.odometer_documented",
		"standards_applied.phmsa.ensemble_scored",
		"standards_applied.phmsa.methodology_steps",
		"standards_applied.phmsa.standards_applied",
		"standards_applied.phmsa.remedial_summary",
		"standards_applied.phmsa.audit_ready",
	} {
		row[k] = ""
	}

	if sa := p.StandardsApplied; sa != nil {
		row["standards_applied.severity"] = sa.Severity
		row["standards_applied.repair_recommendation"] = sa.RepairRecommendation
		row["standards_applied.remaining_life_years"] = floatPtrStr(sa.RemainingLifeYears)
		row["standards_applied.adjusted_confidence"] = floatStr(sa.AdjustedConfidence)
		row["standards_applied.tool_qualification_notes"] = sa.ToolQualificationNotes
		row["standards_applied.growth_class"] = sa.GrowthClass
		row["standards_applied.reassessment_years"] = floatStr(sa.ReassessmentYears)
		row["standards_applied.interaction_zone"] = boolStr(sa.InteractionZone)
		row["standards_applied.combined_depth_percent"] = floatPtrStr(sa.CombinedDepthPercent)
		row["standards_applied.phmsa.odometer_documented"] = boolStr(sa.PHMSA.OdometerDocumented)
		row["standards_applied.phmsa.ensemble_scored"] = boolStr(sa.PHMSA.EnsembleScored)
		row["standards_applied.phmsa.methodology_steps"] = joinSemicolon(sa.PHMSA.MethodologySteps)
		row["standards_applied.phmsa.standards_applied"] = joinSemicolon(sa.PHMSA.StandardsApplied)
		row["standards_applied.phmsa.remedial_summary"] = sa.PHMSA.RemedialSummary
		row["standards_applied.phmsa.audit_ready"] = boolStr(sa.PHMSA.AuditReady)
	}

	return row
}

// FlattenException flattens one Exception into the full exceptions-export
// row: MatchColumns reused exactly (empty where inapplicable, i.e. when
// no MatchedPair is supplied), the flagged feature's own attributes, its
// run context, and the exception-only columns.
func FlattenException(e core.Exception, pair *core.MatchedPair, feature *core.Feature, run *core.Run) map[string]string {
	row := make(map[string]string, len(ExceptionColumns()))
	for _, c := range MatchColumns {
		row[c] = ""
	}
	if pair != nil {
		for k, v := range FlattenMatch(*pair) {
			row[k] = v
		}
	}

	for _, c := range FeatureContextColumns {
		row[c] = ""
	}
	if feature != nil {
		row["feature_canonical_type"] = string(feature.CanonicalType)
		row["feature_log_distance_ft"] = floatStr(feature.LogDistanceFt)
		row["feature_corrected_distance_ft"] = floatPtrStr(feature.CorrectedDistanceFt)
		row["feature_depth_percent"] = floatPtrStr(feature.DepthPercent)
		row["feature_depth_in"] = floatPtrStr(feature.DepthIn)
		row["feature_length_in"] = floatPtrStr(feature.LengthIn)
		row["feature_width_in"] = floatPtrStr(feature.WidthIn)
		row["feature_joint_number"] = intPtrStr(feature.JointNumber)
	}

	for _, c := range RunContextColumns {
		row[c] = ""
	}
	if run != nil {
		row["run_year"] = strconv.Itoa(run.InspectionYear)
		row["run_label"] = run.Label
		row["run_vendor"] = run.Vendor
		row["run_tool_type"] = string(run.ToolType)
	}

	row["exception_category"] = string(e.Category)
	row["exception_severity"] = string(e.Severity)
	detailsJSON, err := json.Marshal(e.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}
	row["exception_details_json"] = string(detailsJSON)

	return row
}

// FlattenAuditLog flattens one AuditLog into AuditColumns' keys.
func FlattenAuditLog(a core.AuditLog) map[string]string {
	detailsJSON, err := json.Marshal(a.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}
	return map[string]string{
		"id":            a.ID,
		"job_id":        a.JobID,
		"stage":         a.Stage,
		"action":        a.Action,
		"message":       a.Message,
		"timestamp":     a.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		"details_json":  string(detailsJSON),
	}
}

// ExtraKeys returns, sorted lexicographically, any key present in rows
// that isn't already in known — the "extra discovered keys" convention asks
// the CSV header to append after the canonical column order.
func ExtraKeys(rows []map[string]string, known []string) []string {
	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}
	seen := make(map[string]bool)
	var extras []string
	for _, row := range rows {
		for k := range row {
			if knownSet[k] || seen[k] {
				continue
			}
			seen[k] = true
			extras = append(extras, k)
		}
	}
	sortStrings(extras)
	return extras
}
