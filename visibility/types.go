// Package visibility implements the visibility scorer: a
// four-component confidence score per feature, gated by state thresholds
// and overridden by Run-3 refinement exceptions.
package visibility

import "github.com/pipeintel/ilialign/core"

// State is the closed visibility-state set.
type State string

const (
	StateFull   State = "full"
	StateDimmed State = "dimmed"
	StateHidden State = "hidden"
)

// Weights are the four component weights (default 0.40/0.30/0.15/0.15).
type Weights struct {
	MatchConfidence      float64
	TemporalPersistence  float64
	SpatialReinforcement float64
	DataCompleteness     float64
}

// DefaultWeights is the default weighting.
var DefaultWeights = Weights{
	MatchConfidence:      0.40,
	TemporalPersistence:  0.30,
	SpatialReinforcement: 0.15,
	DataCompleteness:     0.15,
}

const (
	DefaultFullThreshold   = 70
	DefaultDimmedThreshold = 40

	spatialNeighborRadiusFt = 10.0
)

// Components holds the four [0,100] sub-scores before weighting, for
// diagnostics/export.
type Components struct {
	MatchConfidence      float64
	TemporalPersistence  float64
	SpatialReinforcement float64
	DataCompleteness     float64
}

// FeatureVisibility is one feature's scored visibility outcome.
type FeatureVisibility struct {
	FeatureID  string
	Score      float64
	State      State
	Components Components
	Bypassed   bool // control-point type or baseline-run feature
}

// Input is everything Score needs for one job.
type Input struct {
	Features      []*core.Feature
	BaselineRunID string
	// PartnerMap is symmetric: featureID -> matched partner feature ids
	// ("never follow ownership back-pointers; all cross-entity
	// references are by identifier").
	PartnerMap  map[string][]string
	MatchScores map[string]float64 // featureID -> its MatchedPair confidence, matched features only
	TotalRuns   int
	Exceptions  []core.Exception

	FullThreshold   int
	DimmedThreshold int
	Weights         Weights
}

// Result maps feature id to its visibility outcome.
type Result struct {
	ByFeatureID map[string]FeatureVisibility
}
