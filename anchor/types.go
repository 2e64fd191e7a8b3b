// Package anchor pairs girth welds between two runs to build the ordered
// AnchorPair sequence the correction engine turns into piecewise-linear
// offset segments.
package anchor

import "github.com/pipeintel/ilialign/core"

// Weld is the minimal girth-weld shape the matcher needs: an identifier,
// its distance along the run's own axis, and an optional joint number.
type Weld struct {
	FeatureID   string
	DistanceFt  float64
	JointNumber *int
}

// WeldsFromFeatures extracts girth welds from a run's features, in the
// caller's order, in the shape Match needs. It does not sort them.
func WeldsFromFeatures(features []*core.Feature) []Weld {
	var out []Weld
	for _, f := range features {
		if f.CanonicalType != core.EventGirthWeld {
			continue
		}
		out = append(out, Weld{FeatureID: f.ID, DistanceFt: f.LogDistanceFt, JointNumber: f.JointNumber})
	}
	// Insertion order from the caller is assumed ascending by distance
	// already (features are normalized in sheet row order, which is
	// monotone by log distance); Match does not re-sort to keep the
	// algorithm's "previous accepted" bookkeeping meaningful even for
	// malformed input, which simply yields fewer accepted anchors.
	return out
}

// Result is the output of Match: the final anchor sequence plus any
// CUTOUT_RESET / SEGMENT_DRIFT exceptions raised between consecutive
// anchors.
type Result struct {
	Anchors    []core.AnchorPair
	Exceptions []core.Exception
}
