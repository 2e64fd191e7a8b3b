// Package export flattens a job's MatchedPairs, Exceptions and AuditLogs
// into the fixed canonical column order C18 emits as CSV and as a
// multi-sheet tabular workbook.
package export

import "github.com/pipeintel/ilialign/core"

// MatchColumns is the canonical, stable MatchedPair column order.
// Nested StandardsApplied fields are flattened with a dot, arrays are
// joined with ';'.
var MatchColumns = []string{
	"id",
	"job_id",
	"older_feature_id",
	"newer_feature_id",
	"older_run_id",
	"newer_run_id",
	"distance_residual_ft",
	"clock_residual_hr",
	"type_compatibility",
	"dimensional_similarity",
	"confidence_score",
	"confidence_category",
	"match_category",
	"depth_growth_pct_per_yr",
	"length_growth_in_per_yr",
	"width_growth_in_per_yr",
	"years_between",
	"competing_older_ids",
	"is_primary_match",
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
}

// ExceptionOnlyColumns are appended after MatchColumns and the
// feature/run-context columns, in this order.
var ExceptionOnlyColumns = []string{
	"exception_category",
	"exception_severity",
	"exception_details_json",
}

// FeatureContextColumns are appended to the exceptions export after
// MatchColumns: the flagged feature's own attributes.
var FeatureContextColumns = []string{
	"feature_canonical_type",
	"feature_log_distance_ft",
	"feature_corrected_distance_ft",
	"feature_depth_percent",
	"feature_depth_in",
	"feature_length_in",
	"feature_width_in",
	"feature_joint_number",
}

// RunContextColumns follow FeatureContextColumns in the exceptions export:
// the owning run's identity.
var RunContextColumns = []string{
	"run_year",
	"run_label",
	"run_vendor",
	"run_tool_type",
}

// ExceptionColumns is the full exceptions-export column order: the match
// column order (reused exactly, empty where inapplicable), then feature
// context, run context, and the exception-only columns.
func ExceptionColumns() []string {
	cols := make([]string, 0, len(MatchColumns)+len(FeatureContextColumns)+len(RunContextColumns)+len(ExceptionOnlyColumns))
	cols = append(cols, MatchColumns...)
	cols = append(cols, FeatureContextColumns...)
	cols = append(cols, RunContextColumns...)
	cols = append(cols, ExceptionOnlyColumns...)
	return cols
}

// AuditColumns is the audit-sheet column order.
var AuditColumns = []string{
	"id",
	"job_id",
	"stage",
	"action",
	"message",
	"timestamp",
	"details_json",
}

// RunContext is the minimal run identity the exceptions export attaches
// to a feature-scoped exception row.
type RunContext struct {
	Year     int
	Label    string
	Vendor   string
	ToolType core.ToolType
}
