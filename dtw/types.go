// Package dtw aligns two reference-point spacing sequences with Dynamic
// Time Warping under a Sakoe-Chiba band, for the cross-run alignment stage.
// Adapted from a general-purpose DTW distance/backtrace implementation,
// specialized to the fixed output shape the alignment stage needs: a warp
// path, a normalized-cost confidence score, and a per-step drift profile.
package dtw

import "errors"

// Sentinel errors for DTW input validation.
var (
	// ErrEmptyInput indicates one or both input sequences are empty.
	ErrEmptyInput = errors.New("dtw: input sequences must be non-empty")

	// ErrBadInput indicates an invalid option combination.
	ErrBadInput = errors.New("dtw: invalid options combination")

	// ErrIncompletePath indicates path backtrace failed to reach (0,0).
	ErrIncompletePath = errors.New("dtw: path computation incomplete")
)

// Coord is a single (i,j) step of the optimal warping path. I indexes
// sequence a, J indexes sequence b.
type Coord struct {
	I, J int
}

// Options configures the alignment.
//
//	BandFraction - Sakoe-Chiba band width as a fraction of max(len(a),len(b));
//	               the band radius is ceil(max(n,m)*BandFraction). Default 0.25.
type Options struct {
	BandFraction float64
}

// DefaultOptions returns BandFraction: 0.25.
func DefaultOptions() Options {
	return Options{BandFraction: 0.25}
}

// Validate reports ErrBadInput for a non-positive band fraction.
func (o *Options) Validate() error {
	if o.BandFraction <= 0 {
		return ErrBadInput
	}
	return nil
}

// Result is the full output of an alignment.
type Result struct {
	Path             []Coord
	TotalCost        float64
	NormalizedCost   float64
	DriftProfile     []float64 // per-step b-mapped distance minus a-mapped distance (signed)
	Confidence       float64   // 100*exp(-NormalizedCost/3)
	AnchorMappings   []Coord   // extracted 1:1 diagonal matches, see extractAnchors
}
