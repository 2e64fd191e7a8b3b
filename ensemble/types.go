// Package ensemble computes the weighted multi-signal similarity score
// between a candidate older/newer anomaly pair, the score both the
// Hungarian cost matrix and the exported MatchedPair confidence
// derive from.
package ensemble

import "errors"

// ErrBadWeights indicates the configured weights do not sum to a positive
// value (ensemble_weights).
var ErrBadWeights = errors.New("ensemble: weights must sum > 0")

// Weights holds the seven component weights (default weights).
type Weights struct {
	Distance    float64
	Clock       float64
	Dimensional float64
	Type        float64
	DTW         float64
	ICP         float64
	Temporal    float64
}

// DefaultWeights returns the defaults: 0.25/0.15/0.15/0.15/0.10/0.10/0.10.
func DefaultWeights() Weights {
	return Weights{
		Distance:    0.25,
		Clock:       0.15,
		Dimensional: 0.15,
		Type:        0.15,
		DTW:         0.10,
		ICP:         0.10,
		Temporal:    0.10,
	}
}

// Validate reports ErrBadWeights unless the seven weights sum to a
// strictly positive value.
func (w Weights) Validate() error {
	sum := w.Distance + w.Clock + w.Dimensional + w.Type + w.DTW + w.ICP + w.Temporal
	if sum <= 0 {
		return ErrBadWeights
	}
	return nil
}

// Candidate is one older/newer anomaly pair's raw signals.
// Pointer fields are nil when the signal is unavailable.
type Candidate struct {
	DistanceResidualFt float64

	OlderClockHr *float64
	NewerClockHr *float64

	OlderType string
	NewerType string

	OlderDepthIn  *float64
	NewerDepthIn  *float64
	OlderLengthIn *float64
	NewerLengthIn *float64
	OlderWidthIn  *float64
	NewerWidthIn  *float64

	DTWConfidence *float64 // 0-100
	ICPRMSEFt     *float64

	TemporalMatchCount *int
	TemporalTotalRuns  *int
}

// Components holds the seven component scores, each in [0,1], plus whether
// the clock signal was available for this candidate.
type Components struct {
	Distance, Clock, Dimensional, Type, DTW, ICP, Temporal float64
	ClockAvailable                                         bool
}

// Score is the final ensemble output.
type Score struct {
	Components  Components
	Total       float64 // 0-100
	Category    string  // HIGH | MEDIUM | LOW
	Explanation string
}
