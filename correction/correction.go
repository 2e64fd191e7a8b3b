package correction

import "github.com/pipeintel/ilialign/core"

// blocks splits an anchor sequence into reset-bounded blocks: an anchor
// with IsReset set starts a new block rather than closing a segment with
// the previous anchor (a cutout severs the
// correction, it does not interpolate across it).
func blocks(anchors []core.AnchorPair) [][]core.AnchorPair {
	var out [][]core.AnchorPair
	var cur []core.AnchorPair
	for _, a := range anchors {
		if a.IsReset && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, a)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// BuildSegments turns an anchor sequence into the ordered CorrectionSegment
// list: one segment per adjacent anchor pair within a reset block, offset
// being the newer-minus-older distance at each endpoint.
func BuildSegments(anchors []core.AnchorPair) []core.CorrectionSegment {
	var segs []core.CorrectionSegment
	idx := 0
	for _, block := range blocks(anchors) {
		for i := 0; i+1 < len(block); i++ {
			a, b := block[i], block[i+1]
			offset0 := a.NewerDistance - a.OlderDistance
			offset1 := b.NewerDistance - b.OlderDistance
			x0, x1 := a.OlderDistance, b.OlderDistance
			var slope float64
			if x1 != x0 {
				slope = (offset1 - offset0) / (x1 - x0)
			}
			segs = append(segs, core.CorrectionSegment{
				SegmentIndex: idx,
				X0:           x0,
				X1:           x1,
				Offset0:      offset0,
				Offset1:      offset1,
				Slope:        slope,
			})
			idx++
		}
	}
	return segs
}

// Apply maps a single older-run log distance onto the corrected axis.
// Distances before the first segment or after the last extrapolate flat
// using the nearest endpoint's offset; distances with no segments at all
// (no anchors, or a single-anchor block with nothing to interpolate
// against) pass through unchanged.
func Apply(logFt float64, segments []core.CorrectionSegment) float64 {
	if len(segments) == 0 {
		return logFt
	}
	if logFt < segments[0].X0 {
		return logFt + segments[0].Offset0
	}
	for _, s := range segments {
		if logFt >= s.X0 && logFt < s.X1 {
			return s.Apply(logFt)
		}
	}
	last := segments[len(segments)-1]
	return logFt + last.Offset1
}

// Build computes the segment list for an anchor sequence and the corrected
// distance for every supplied older-run feature (C7).
func Build(anchors []core.AnchorPair, olderFeatures []*core.Feature) Result {
	segs := BuildSegments(anchors)
	corrected := make(map[string]float64, len(olderFeatures))
	for _, f := range olderFeatures {
		corrected[f.ID] = Apply(f.LogDistanceFt, segs)
	}
	return Result{Segments: segs, Corrected: corrected}
}
