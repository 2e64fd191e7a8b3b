// Package standards implements the integrity-assessment engine: ASME
// B31.8S severity and repair recommendation, API 1163 tool-qualification
// confidence adjustment, NACE SP0502 growth classification, and the PHMSA
// compliance record. Results are attached to a MatchedPair as
// StandardsApplied and never feed back into ConfidenceScore or
// MatchCategory.
package standards

import "github.com/pipeintel/ilialign/core"

// DefaultToolQualifications is the fixed API 1163 accuracy-band table,
// keyed by tool type. Bands are representative industry figures,
// not sourced from a specific tool vendor's published spec.
var DefaultToolQualifications = map[core.ToolType]core.ToolQualification{
	core.ToolMFL: {
		ToolType: core.ToolMFL, ConfidenceWeight: 0.90,
		DepthBandPct: 10, DistanceBandFt: 1.0, ClockBandHr: 0.5,
	},
	core.ToolUT: {
		ToolType: core.ToolUT, ConfidenceWeight: 0.95,
		DepthBandPct: 5, DistanceBandFt: 0.5, ClockBandHr: 0.25,
	},
	core.ToolCaliper: {
		ToolType: core.ToolCaliper, ConfidenceWeight: 0.80,
		DepthBandPct: 15, DistanceBandFt: 2.0, ClockBandHr: 1.0,
	},
	core.ToolCombo: {
		ToolType: core.ToolCombo, ConfidenceWeight: 0.92,
		DepthBandPct: 7, DistanceBandFt: 0.75, ClockBandHr: 0.4,
	},
	core.ToolUnknown: {
		ToolType: core.ToolUnknown, ConfidenceWeight: 0.50,
		DepthBandPct: 20, DistanceBandFt: 5.0, ClockBandHr: 2.0,
	},
}

// corrosionTypes is the NACE SP0502 growth-classification scope.
var corrosionTypes = map[core.EventType]bool{
	core.EventMetalLoss:    true,
	core.EventCluster:      true,
	core.EventMetalLossMfg: true,
}

// severityTypes is the ASME B31.8S severity scope.
var severityTypes = map[core.EventType]bool{
	core.EventMetalLoss:    true,
	core.EventCluster:      true,
	core.EventMetalLossMfg: true,
	core.EventDent:         true,
}

// Input is everything Compute needs for one MatchedPair.
type Input struct {
	Pair              core.MatchedPair
	OlderFeature      *core.Feature
	NewerFeature      *core.Feature
	ToolQualification core.ToolQualification

	InteractionZone      bool
	CombinedDepthPercent *float64 // set when InteractionZone is true

	OdometerDocumented bool
	EnsembleScored     bool
	MethodologySteps   []string
}

// Result is Compute's output: the StandardsApplied annotation plus any
// INTERACTION_ZONE / IMMEDIATE_SEVERITY / ACCELERATED_GROWTH exceptions.
type Result struct {
	Standards  core.StandardsApplied
	Exceptions []core.Exception
}
