// Package matcher assigns older-run anomalies to newer-run anomalies
// within each anchor-induced segment via the ensemble scorer and the
// Hungarian solver, emitting MatchedPairs and UNMATCHED exceptions.
package matcher

import (
	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/ensemble"
)

// minEnsembleScore is the floor an ensemble score must clear to accept an
// assignment.
const minEnsembleScore = 25.0

// SegmentSignal carries the optional per-segment DTW/ICP outputs the
// orchestrator computes before matching runs: DTW over the segment's
// reference-point spacing, ICP over its anomaly clouds; both fields are
// nil when unavailable.
type SegmentSignal struct {
	DTWConfidence *float64
	ICPRMSEFt     *float64
}

// TemporalSignal carries an older feature's cross-run match history, used
// for the ensemble scorer's temporal component.
type TemporalSignal struct {
	MatchCount int
	TotalRuns  int
}

// Input is everything Match needs for one older/newer run pair.
type Input struct {
	JobID         string
	OlderRunID    string
	NewerRunID    string
	Anchors       []core.AnchorPair // sorted ascending by NewerDistance
	OlderFeatures []*core.Feature   // non-reference anomalies only
	NewerFeatures []*core.Feature
	YearsBetween  float64
	Weights       ensemble.Weights

	// SegmentSignals is keyed by segment index (0-based, in anchor order).
	SegmentSignals map[int]SegmentSignal
	// Temporal is keyed by older Feature ID.
	Temporal map[string]TemporalSignal
}

// Result is Match's output: MatchedPairs plus UNMATCHED exceptions for
// every anomaly with no accepted assignment.
type Result struct {
	Pairs      []core.MatchedPair
	Exceptions []core.Exception
}

// segment is one anchor-induced window on the newer axis, [Lower, Upper).
type segment struct {
	Index int
	Lower float64
	Upper float64
}
