// Package run3 runs the post-match refinement pass over baseline-run
// anomalies: it never deletes features or matches or alters alignment
// math, only appends
// flags that distinguish genuinely new anomalies from duplicate
// detections, dense-cluster noise, and multi-run matches needing a
// primary designation.
package run3

import "github.com/pipeintel/ilialign/core"

// DefaultNeighborhoodRadiusFt and DefaultClusterThreshold are the
// refinement pass's parameter defaults.
const (
	DefaultNeighborhoodRadiusFt = 3.0
	DefaultClusterThreshold     = 3
	DefaultMinDimensionalFields = 2
)

// Input is everything Refine needs for one job's baseline-run pass.
type Input struct {
	BaselineRunID     string
	BaselineFeatures  []*core.Feature // non-reference anomalies only
	Pairs             []core.MatchedPair
	Exceptions        []core.Exception // the matcher's UNMATCHED exceptions for this run
	OlderRunOrder     []string         // oldest to newest
	NeighborhoodRadiusFt float64
	ClusterThreshold  int
	MinDimensionalFields int
}

// Result is Refine's output: the (possibly IsPrimaryMatch-updated) pairs,
// and the exception set with refinement classifications appended; genuinely
// new anomalies retain their UNMATCHED exception untouched.
type Result struct {
	Pairs      []core.MatchedPair
	Exceptions []core.Exception
}
