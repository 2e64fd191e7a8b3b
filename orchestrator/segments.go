package orchestrator

import (
	"math"
	"sort"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/dtw"
	"github.com/pipeintel/ilialign/icp"
	"github.com/pipeintel/ilialign/matcher"
)

// segmentBound is one anchor-induced window on the newer axis, mirroring
// matcher.buildSegments exactly (len(anchors)+1 windows, open on both
// ends) so segment indices line up with matcher.Input.SegmentSignals.
type segmentBound struct {
	Index int
	Lower float64
	Upper float64
}

func segmentBounds(anchors []core.AnchorPair) []segmentBound {
	segs := make([]segmentBound, 0, len(anchors)+1)
	lower := math.Inf(-1)
	for i, a := range anchors {
		segs = append(segs, segmentBound{Index: i, Lower: lower, Upper: a.NewerDistance})
		lower = a.NewerDistance
	}
	segs = append(segs, segmentBound{Index: len(anchors), Lower: lower, Upper: math.Inf(1)})
	return segs
}

func withinSegment(f *core.Feature, seg segmentBound) bool {
	d := f.EffectiveDistanceFt()
	return d >= seg.Lower && d < seg.Upper
}

// buildSegmentSignals computes, per anchor segment, a DTW confidence over
// that segment's reference-point spacing sequences and an ICP RMSE over
// its non-reference anomaly clouds, for the ensemble scorer's DTW/ICP
// components. Both algorithms are pure and never suspend; a segment with
// too few points on either side degrades to a nil signal rather than
// failing the pair.
func (o *Orchestrator) buildSegmentSignals(
	anchors []core.AnchorPair,
	olderRef, newerRef []*core.Feature,
	olderAnomalies, newerAnomalies []*core.Feature,
) (map[int]matcher.SegmentSignal, []*core.AuditLog) {
	segs := segmentBounds(anchors)
	out := make(map[int]matcher.SegmentSignal, len(segs))
	var logs []*core.AuditLog

	dtwOpts := dtwOptionsFrom(o.Config)
	icpOpts := icpOptionsFrom(o.Config)

	for _, seg := range segs {
		sig := matcher.SegmentSignal{}

		olderDist := sortedDistances(filterSeg(olderRef, seg))
		newerDist := sortedDistances(filterSeg(newerRef, seg))
		if res, err := dtw.Align(olderDist, newerDist, dtwOpts); err == nil {
			conf := res.Confidence
			sig.DTWConfidence = &conf
			logs = append(logs, o.newAuditLog("alignment_refinement", ActionAlgoDTW,
				"dtw segment alignment", map[string]interface{}{"segment": seg.Index, "confidence": conf}))
		}

		srcPts := toICPPoints(filterSeg(olderAnomalies, seg))
		dstPts := toICPPoints(filterSeg(newerAnomalies, seg))
		if res, err := icp.Refine(srcPts, dstPts, icpOpts); err == nil && (len(srcPts) > 0 && len(dstPts) > 0) {
			rmse := res.RMSE
			sig.ICPRMSEFt = &rmse
			logs = append(logs, o.newAuditLog("alignment_refinement", ActionAlgoICP,
				"icp segment refinement", map[string]interface{}{"segment": seg.Index, "rmse_ft": rmse, "converged": res.Converged}))
		}

		out[seg.Index] = sig
	}

	return out, logs
}

func filterSeg(features []*core.Feature, seg segmentBound) []*core.Feature {
	var out []*core.Feature
	for _, f := range features {
		if withinSegment(f, seg) {
			out = append(out, f)
		}
	}
	return out
}

func sortedDistances(features []*core.Feature) []float64 {
	out := make([]float64, len(features))
	for i, f := range features {
		out[i] = f.EffectiveDistanceFt()
	}
	sort.Float64s(out)
	return out
}

func toICPPoints(features []*core.Feature) []icp.Point {
	out := make([]icp.Point, 0, len(features))
	for _, f := range features {
		if f.ClockDecimal == nil {
			continue
		}
		out = append(out, icp.Point{DistanceFt: f.EffectiveDistanceFt(), ClockHr: *f.ClockDecimal})
	}
	return out
}
