package standards

import (
	"fmt"
	"math"

	"github.com/pipeintel/ilialign/core"
)

// depthScopeFt80 is the ASME B31.8S depth-percent ceiling treated as
// through-wall for remaining-life purposes.
const depthScopeFt80 = 80.0

// Compute applies the four assessment sub-systems (severity, repair
// recommendation, tool-qualification confidence adjustment, growth
// classification) to one matched pair and returns both the
// StandardsApplied annotation and any new exceptions it raises. It never
// mutates in.Pair.
func Compute(in Input) Result {
	depth := effectiveDepth(in)
	isDent := in.NewerFeature != nil && in.NewerFeature.CanonicalType == core.EventDent
	applicable := in.NewerFeature != nil && severityTypes[in.NewerFeature.CanonicalType]

	var severity, repair string
	var remaining *float64
	var accelerated bool
	if applicable {
		severity = severityFor(depth, isDent)
		growthRate := derefGrowth(in.Pair.DepthGrowthPctPerYr)
		remaining, accelerated = remainingLife(depth, growthRate)
		lengthIn := 0.0
		if in.NewerFeature.LengthIn != nil {
			lengthIn = *in.NewerFeature.LengthIn
		}
		repair = repairRecommendation(severity, isDent, depth, lengthIn)
	}

	adjusted := adjustConfidence(in.Pair.ConfidenceScore, in.ToolQualification, in.Pair, depthDiff(in.OlderFeature, in.NewerFeature))

	var growthClass string
	var reassessYears float64
	if in.NewerFeature != nil {
		growthClass, reassessYears = growthClassification(in.NewerFeature.CanonicalType, derefGrowth(in.Pair.DepthGrowthPctPerYr))
	}

	standards := core.StandardsApplied{
		Severity:               severity,
		RepairRecommendation:   repair,
		RemainingLifeYears:     remaining,
		AdjustedConfidence:     adjusted,
		ToolQualificationNotes: fmt.Sprintf("%s tool, confidence_weight=%.2f, depth_band=%.1f%%", in.ToolQualification.ToolType, in.ToolQualification.ConfidenceWeight, in.ToolQualification.DepthBandPct),
		GrowthClass:            growthClass,
		ReassessmentYears:      reassessYears,
		InteractionZone:        in.InteractionZone,
		CombinedDepthPercent:   in.CombinedDepthPercent,
		PHMSA:                  buildPHMSA(in, severity),
	}

	var exceptions []core.Exception
	featureID := ""
	if in.NewerFeature != nil {
		featureID = in.NewerFeature.ID
	}
	if in.InteractionZone {
		exceptions = append(exceptions, core.Exception{
			FeatureID: featureID,
			Category:  core.ExcInteractionZone,
			Severity:  core.SeverityMedium,
			Details:   map[string]interface{}{"combined_depth_percent": derefFloat(in.CombinedDepthPercent)},
		})
	}
	if severity == "IMMEDIATE" {
		exceptions = append(exceptions, core.Exception{
			FeatureID: featureID,
			Category:  core.ExcImmediateSeverity,
			Severity:  core.SeverityHigh,
			Details:   map[string]interface{}{"depth_percent": depth},
		})
	}
	if accelerated {
		exceptions = append(exceptions, core.Exception{
			FeatureID: featureID,
			Category:  core.ExcAcceleratedGrowth,
			Severity:  core.SeverityHigh,
			Details:   map[string]interface{}{"remaining_life_years": derefFloat(remaining)},
		})
	}

	return Result{Standards: standards, Exceptions: exceptions}
}

// effectiveDepth is the combined depth when the pair sits in an
// interaction zone, else the newer feature's own depth percent.
func effectiveDepth(in Input) float64 {
	if in.InteractionZone && in.CombinedDepthPercent != nil {
		return *in.CombinedDepthPercent
	}
	if in.NewerFeature != nil && in.NewerFeature.DepthPercent != nil {
		return *in.NewerFeature.DepthPercent
	}
	return 0
}

// severityFor is the ASME B31.8S severity table. Dents use a tighter
// depth-of-wall-thickness scale than corrosion metal loss.
func severityFor(depthPercent float64, isDent bool) string {
	if isDent {
		switch {
		case depthPercent > 6:
			return "IMMEDIATE"
		case depthPercent > 2:
			return "SCHEDULED"
		default:
			return "MONITORING"
		}
	}
	switch {
	case depthPercent >= depthScopeFt80:
		return "IMMEDIATE"
	case depthPercent >= 60:
		return "SCHEDULED"
	case depthPercent >= 40:
		return "MONITORING"
	default:
		return "INFORMATIONAL"
	}
}

// remainingLife projects years until depthPercent reaches the 80% wall
// ceiling at the given linear growth rate. Zero or negative growth, or a
// feature already at or past the ceiling, yields no projection.
func remainingLife(depthPercent, growthRatePctPerYr float64) (*float64, bool) {
	if growthRatePctPerYr <= 0 || depthPercent >= depthScopeFt80 {
		return nil, false
	}
	years := (depthScopeFt80 - depthPercent) / growthRatePctPerYr
	remaining := years
	return &remaining, years < 5
}

// repairRecommendation maps severity (plus a few dimensional tie-breaks)
// to a field action.
func repairRecommendation(severity string, isDent bool, depthPercent, lengthIn float64) string {
	switch severity {
	case "IMMEDIATE":
		return "CUTOUT"
	case "SCHEDULED":
		if lengthIn > 6 {
			return "SLEEVE"
		}
		return "COMPOSITE_WRAP"
	case "MONITORING":
		if depthPercent < 50 && lengthIn < 3 {
			return "GRIND"
		}
		return "MONITOR"
	default:
		return "NONE"
	}
}

// adjustConfidence nudges ConfidenceScore within the tool's API 1163
// qualified accuracy bands. It returns a new value; ConfidenceScore itself
// is left untouched by the caller.
func adjustConfidence(base float64, q core.ToolQualification, pair core.MatchedPair, depthDiffPct *float64) float64 {
	adj := base
	absDist := math.Abs(pair.DistanceResidualFt)
	switch {
	case absDist <= q.DistanceBandFt:
		adj += 5
	case q.DistanceBandFt > 0 && absDist > 3*q.DistanceBandFt:
		adj -= 10
	}
	if pair.ClockResidualHr != nil && q.ClockBandHr > 0 && *pair.ClockResidualHr <= q.ClockBandHr {
		adj += 3
	}
	if depthDiffPct != nil && q.DepthBandPct > 0 && math.Abs(*depthDiffPct) <= q.DepthBandPct {
		adj += 3
	}
	return clamp(adj, 0, 100)
}

// growthClassification is NACE SP0502's growth-rate banding, scoped to
// corrosion event types only.
func growthClassification(t core.EventType, growthRatePctPerYr float64) (string, float64) {
	if !corrosionTypes[t] {
		return "", 0
	}
	switch {
	case growthRatePctPerYr > 2:
		return "accelerating", 3
	case growthRatePctPerYr > 0.5:
		return "growing", 5
	case growthRatePctPerYr > 0:
		return "stable", 7
	default:
		return "undetermined", 5
	}
}

// buildPHMSA assembles the 49 CFR audit-readiness record.
func buildPHMSA(in Input, severity string) core.PHMSARecord {
	auditReady := in.OdometerDocumented && in.EnsembleScored && severity != ""
	return core.PHMSARecord{
		OdometerDocumented: in.OdometerDocumented,
		EnsembleScored:     in.EnsembleScored,
		MethodologySteps:   in.MethodologySteps,
		StandardsApplied:   []string{"ASME B31.8S", "API 1163", "NACE SP0502"},
		RemedialSummary:    fmt.Sprintf("severity=%s tool_qualification=%s", orNone(severity), in.ToolQualification.ToolType),
		AuditReady:         auditReady,
	}
}

func depthDiff(older, newer *core.Feature) *float64 {
	if older == nil || newer == nil || older.DepthPercent == nil || newer.DepthPercent == nil {
		return nil
	}
	d := *newer.DepthPercent - *older.DepthPercent
	return &d
}

func derefGrowth(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func orNone(s string) string {
	if s == "" {
		return "NONE"
	}
	return s
}
