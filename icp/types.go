// Package icp performs translation-only Iterative Closest Point refinement
// of anomaly clouds within a single weld-to-weld segment. Points are
// (corrected_distance_ft, clock_hours); rotation and scaling are never
// applied — only a 2-D translation is ever solved for, and only after a
// closest-point correspondence pass per iteration, following the same
// "accumulate then average" determinism discipline the corpus's matrix
// column-centering helper uses for centroid computation.
package icp

import "errors"

// ErrBadInput indicates an invalid option combination.
var ErrBadInput = errors.New("icp: invalid options combination")

// Point is one 2-D anomaly position: DistanceFt along the corrected axis,
// ClockHr the (possibly unwrapped) clock position in hours.
type Point struct {
	DistanceFt float64
	ClockHr    float64
}

// Options configures convergence and correspondence behavior.
//
//	MaxIterations       - hard cap on refinement iterations. Default 20.
//	ConvergenceFt        - stop once |Δmean residual| falls below this. Default 0.01.
//	MaxCorrespondenceFt  - reject correspondences farther than this. Default 5.0.
//	ClockWeightFtPerHour - clock-to-feet scale in the 2-D metric. Fixed at 2.5.
type Options struct {
	MaxIterations       int
	ConvergenceFt       float64
	MaxCorrespondenceFt float64
	ClockWeightFtPerHour float64
}

// DefaultOptions returns the default settings: 20 iterations, 0.01 ft
// convergence, 5.0 ft max correspondence, 2.5 ft/hr clock weight.
func DefaultOptions() Options {
	return Options{
		MaxIterations:        20,
		ConvergenceFt:        0.01,
		MaxCorrespondenceFt:  5.0,
		ClockWeightFtPerHour: 2.5,
	}
}

// Validate reports ErrBadInput for non-positive iteration/tolerance fields.
func (o *Options) Validate() error {
	if o.MaxIterations <= 0 || o.ConvergenceFt <= 0 || o.MaxCorrespondenceFt <= 0 || o.ClockWeightFtPerHour <= 0 {
		return ErrBadInput
	}
	return nil
}

// IterationLog records one refinement step.
type IterationLog struct {
	Iteration      int
	TranslationFt  float64
	TranslationClk float64
	MeanResidual   float64
}

// Correspondence pairs a source index with its matched target index.
type Correspondence struct {
	SourceIndex int
	TargetIndex int
	DistanceFt  float64 // weighted 2-D distance at the final iteration
}

// Result is the full ICP output.
type Result struct {
	TranslationFt   float64
	TranslationClk  float64
	Iterations      []IterationLog
	Correspondences []Correspondence
	RMSE            float64
	Converged       bool
	Confidence      float64 // 100*exp(-RMSE/3)
}
